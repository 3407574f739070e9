package cli

import (
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan <account>",
		Short:         "Show the account's plan and remaining budget",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPlan(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func showPlan(cmd *cobra.Command, opts *RootOptions, account string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	plan, err := a.engine.GetPlan(ctx, account)
	if err != nil {
		return reportEngineError(cmd, opts, err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(planView(plan))
}
