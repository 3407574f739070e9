package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChainStarter/plutus3-dca/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "history <account>",
		Short:         "List the account's journaled trigger attempts",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func showHistory(cmd *cobra.Command, opts *RootOptions, account string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.store.ReadAttempts(ctx, account)
	if err != nil {
		return WrapExitError(ExitCommandError, "read attempts", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(historyView(recs))
}

// AttemptView is the presentation shape for one journaled attempt.
type AttemptView struct {
	Seq       int64  `json:"seq"`
	ID        string `json:"id"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	AmountIn  uint64 `json:"amount_in"`
	AmountOut uint64 `json:"amount_out"`
	At        string `json:"at"`
}

// HistoryView is the presentation shape for an account's attempt journal.
type HistoryView struct {
	Attempts []AttemptView `json:"attempts"`
}

func historyView(recs []store.AttemptRecord) HistoryView {
	attempts := make([]AttemptView, 0, len(recs))
	for _, rec := range recs {
		attempts = append(attempts, AttemptView{
			Seq:       rec.Seq,
			ID:        rec.ID,
			State:     rec.State,
			Reason:    rec.Reason,
			AmountIn:  rec.AmountIn,
			AmountOut: rec.AmountOut,
			At:        time.Unix(rec.CreatedAt, 0).UTC().Format(time.RFC3339),
		})
	}
	return HistoryView{Attempts: attempts}
}

// String renders the text-format output, one attempt per line.
func (v HistoryView) String() string {
	if len(v.Attempts) == 0 {
		return "no attempts recorded"
	}
	var b strings.Builder
	for i, a := range v.Attempts {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := fmt.Sprintf("%4d  %s  %s  %-9s  in=%d out=%d", a.Seq, a.At, a.ID, a.State, a.AmountIn, a.AmountOut)
		if a.Reason != "" {
			line += "  reason=" + a.Reason
		}
		b.WriteString(line)
	}
	return b.String()
}
