package engine

import (
	"github.com/ChainStarter/plutus3-dca/internal/custody"
	"github.com/ChainStarter/plutus3-dca/internal/guard"
	"github.com/ChainStarter/plutus3-dca/internal/ledger"
	"github.com/ChainStarter/plutus3-dca/internal/oracle"
	"github.com/ChainStarter/plutus3-dca/internal/random"
	"github.com/ChainStarter/plutus3-dca/internal/swap"
)

// Reason codes stamped on journaled non-committed attempts.
//
// A rejection means a gate turned the attempt away before any external
// effect; a failure means an effect was attempted and did not complete.
const (
	ReasonNotDue                = "not_due"
	ReasonExhausted             = "exhausted"
	ReasonNotFound              = "not_found"
	ReasonInvalidParameters     = "invalid_parameters"
	ReasonAlreadyExists         = "already_exists"
	ReasonStaleQuote            = "stale_quote"
	ReasonOutOfBand             = "out_of_band"
	ReasonQuoteUnavailable      = "quote_unavailable"
	ReasonSeedReused            = "seed_reused"
	ReasonNotYetAdmitted        = "not_yet_admitted"
	ReasonRandomnessUnavailable = "randomness_unavailable"
	ReasonStaleProposal         = "stale_proposal"
	ReasonSwapFailed            = "swap_failed"
	ReasonTransferFailed        = "transfer_failed"
	ReasonInternal              = "internal"
)

// ReasonFor returns the reason code an attempt-stopping error journals
// under. Callers presenting engine errors use it for stable machine codes.
func ReasonFor(err error) string {
	_, reason := classify(err)
	return reason
}

// classify maps an attempt-stopping error to its terminal state and reason
// code. Gate errors reject; effect errors fail; anything unrecognized is an
// internal failure so it is never silently reported as a soft rejection.
func classify(err error) (State, string) {
	switch {
	case ledger.IsNotDue(err):
		return StateRejected, ReasonNotDue
	case ledger.IsExhausted(err):
		return StateRejected, ReasonExhausted
	case ledger.IsNotFound(err):
		return StateRejected, ReasonNotFound
	case ledger.IsInvalidParameters(err):
		return StateRejected, ReasonInvalidParameters
	case ledger.IsAlreadyExists(err):
		return StateRejected, ReasonAlreadyExists
	case ledger.IsStaleProposal(err):
		return StateRejected, ReasonStaleProposal
	case guard.IsStaleQuote(err):
		return StateRejected, ReasonStaleQuote
	case guard.IsOutOfBand(err):
		return StateRejected, ReasonOutOfBand
	case oracle.IsUnavailable(err):
		return StateRejected, ReasonQuoteUnavailable
	case random.IsSeedReused(err):
		return StateRejected, ReasonSeedReused
	case random.IsNotYetAdmitted(err):
		return StateRejected, ReasonNotYetAdmitted
	case random.IsUnavailable(err):
		return StateRejected, ReasonRandomnessUnavailable
	case swap.IsFailed(err):
		return StateFailed, ReasonSwapFailed
	case custody.IsTransferFailed(err):
		return StateFailed, ReasonTransferFailed
	default:
		return StateFailed, ReasonInternal
	}
}
