package engine

import (
	"log/slog"
	"time"
)

// State is the position of a trigger attempt in its lifecycle.
//
// Attempts move Requested -> Gated -> PriceChecked -> RandomnessAdmitted ->
// Swapped -> Committed, or terminate early in Rejected/Failed at the gate
// that stopped them.
type State string

const (
	StateRequested          State = "requested"
	StateGated              State = "gated"
	StatePriceChecked       State = "price_checked"
	StateRandomnessAdmitted State = "randomness_admitted"
	StateSwapped            State = "swapped"
	StateCommitted          State = "committed"

	// StateRejected is terminal: a gate turned the attempt away before any
	// external effect. Soft unless the reason is permanent (exhausted).
	StateRejected State = "rejected"

	// StateFailed is terminal: an external effect was attempted and failed.
	// The all-or-nothing contract still holds - nothing was committed.
	StateFailed State = "failed"
)

// attempt tracks one in-flight trigger attempt.
type attempt struct {
	id        string
	account   string
	state     State
	amountIn  uint64
	startedAt time.Time
}

func newAttempt(id, account string, startedAt time.Time) *attempt {
	return &attempt{
		id:        id,
		account:   account,
		state:     StateRequested,
		startedAt: startedAt,
	}
}

// advance moves the attempt forward one state.
func (a *attempt) advance(next State) {
	slog.Debug("attempt advanced",
		"attempt_id", a.id,
		"account", a.account,
		"from", a.state,
		"to", next,
	)
	a.state = next
}
