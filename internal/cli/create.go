package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ChainStarter/plutus3-dca/internal/ledger"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Frequency time.Duration
	Amount    uint64
	Total     uint64
	PlanFile  string
}

// planFile is the YAML shape accepted by --plan.
type planFile struct {
	Account   string `yaml:"account"`
	Frequency string `yaml:"frequency"` // Go duration syntax, e.g. "24h"
	Amount    uint64 `yaml:"amount"`
	Total     uint64 `yaml:"total"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create [account]",
		Short: "Create a recurring purchase plan and take its budget into custody",
		Long: `Create a recurring purchase plan and take its budget into custody.

Amounts are smallest units of the input asset. The plan is defined either
inline by flags or by a YAML file:

  dca create alice --frequency 24h --amount 2000000 --total 60000000
  dca create --plan plan.yaml

plan.yaml:
  account: alice
  frequency: 24h
  amount: 2000000
  total: 60000000`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			account := ""
			if len(args) == 1 {
				account = args[0]
			}
			return createPlan(cmd, opts, account)
		},
	}

	cmd.Flags().DurationVar(&opts.Frequency, "frequency", 0, "interval between purchases (e.g. 24h)")
	cmd.Flags().Uint64Var(&opts.Amount, "amount", 0, "input amount per purchase, smallest units")
	cmd.Flags().Uint64Var(&opts.Total, "total", 0, "total budget, smallest units")
	cmd.Flags().StringVar(&opts.PlanFile, "plan", "", "YAML plan definition file")

	return cmd
}

func createPlan(cmd *cobra.Command, opts *CreateOptions, account string) error {
	frequency, amount, total := opts.Frequency, opts.Amount, opts.Total

	if opts.PlanFile != "" {
		doc, err := readPlanFile(opts.PlanFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "read plan file", err)
		}
		if account == "" {
			account = doc.Account
		}
		frequency, err = time.ParseDuration(doc.Frequency)
		if err != nil {
			return WrapExitError(ExitCommandError, "parse plan frequency", err)
		}
		amount, total = doc.Amount, doc.Total
	}

	if account == "" {
		return WrapExitError(ExitCommandError, "account is required (argument or plan file)", nil)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	// Paper trading: the wallet is unlimited, so back the plan on demand.
	a.vault.Fund(account, total)

	plan, err := a.engine.CreatePlan(ctx, account, frequency, amount, total)
	if err != nil {
		return reportEngineError(cmd, opts.RootOptions, err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(planView(plan))
}

func readPlanFile(path string) (*planFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc planFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

// PlanView is the presentation shape for a plan.
type PlanView struct {
	Account         string `json:"account"`
	Frequency       string `json:"frequency"`
	Amount          uint64 `json:"amount"`
	Total           uint64 `json:"total"`
	LastTriggeredAt string `json:"last_triggered_at,omitempty"`
	NextEligibleAt  string `json:"next_eligible_at"`
	Active          bool   `json:"active"`
}

func planView(p ledger.Plan) PlanView {
	v := PlanView{
		Account:        p.Owner,
		Frequency:      p.Frequency.String(),
		Amount:         p.Amount,
		Total:          p.Total,
		NextEligibleAt: p.EligibleAt().UTC().Format(time.RFC3339),
		Active:         p.Active(),
	}
	if !p.LastTriggeredAt.IsZero() {
		v.LastTriggeredAt = p.LastTriggeredAt.UTC().Format(time.RFC3339)
	}
	return v
}

// String renders the text-format output.
func (v PlanView) String() string {
	status := "active"
	if !v.Active {
		status = "exhausted"
	}
	last := v.LastTriggeredAt
	if last == "" {
		last = "never"
	}
	return fmt.Sprintf("plan %s: %s, every %s, %d per purchase, %d remaining (last trigger %s, next eligible %s)",
		v.Account, status, v.Frequency, v.Amount, v.Total, last, v.NextEligibleAt)
}
