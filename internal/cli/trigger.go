package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChainStarter/plutus3-dca/internal/swap"
)

// NewTriggerCommand creates the trigger command.
func NewTriggerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger <account>",
		Short: "Attempt one period of the account's plan",
		Long: `Attempt one period of the account's plan.

The attempt passes the time, budget, price and randomness gates in order,
then swaps and commits the debit. Rejections exit 1 and carry a stable
reason code; nothing is debited on rejection or swap failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return triggerPlan(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func triggerPlan(cmd *cobra.Command, opts *RootOptions, account string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.TriggerPlan(ctx, account)
	if err != nil {
		return reportEngineError(cmd, opts, err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(triggerView(result))
}

// TriggerView is the presentation shape for a committed trigger.
type TriggerView struct {
	InputAsset  string `json:"input_asset"`
	OutputAsset string `json:"output_asset"`
	AmountIn    uint64 `json:"amount_in"`
	AmountOut   uint64 `json:"amount_out"`
	MinOut      uint64 `json:"min_out"`
}

func triggerView(r swap.Result) TriggerView {
	return TriggerView{
		InputAsset:  r.InputAsset,
		OutputAsset: r.OutputAsset,
		AmountIn:    r.AmountIn,
		AmountOut:   r.AmountOut,
		MinOut:      r.MinOut,
	}
}

// String renders the text-format output.
func (v TriggerView) String() string {
	return fmt.Sprintf("swapped %d %s for %d %s (floor %d)",
		v.AmountIn, v.InputAsset, v.AmountOut, v.OutputAsset, v.MinOut)
}
