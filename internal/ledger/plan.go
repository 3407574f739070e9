// Package ledger owns per-account plan records and the propose/commit
// transition that debits them.
//
// Eligibility and exhaustion are derived predicates over the stored fields,
// never cached flags, so the budget and the "active" notion cannot drift
// apart. The propose/commit split lets the orchestrator interleave the swap
// between the two: a proposal carries no side effect, and commit is a
// compare-and-swap that exactly one concurrent attempt can win.
package ledger

import (
	"time"
)

// Plan is one account's recurring-purchase schedule and remaining budget.
//
// Owner, Frequency and Amount are immutable after creation. Total only
// decreases, by exactly Amount per accepted trigger. LastTriggeredAt is the
// zero time until the first trigger and strictly increases afterwards.
type Plan struct {
	Owner           string
	Frequency       time.Duration
	Amount          uint64
	Total           uint64
	LastTriggeredAt time.Time // zero = never triggered
	Version         int64
	CreatedAt       time.Time
}

// Active reports whether the remaining budget covers another period.
func (p Plan) Active() bool {
	return p.Total >= p.Amount
}

// Exhausted reports the terminal state: the remaining budget can no longer
// cover a period's amount. No further trigger can ever succeed.
func (p Plan) Exhausted() bool {
	return p.Total < p.Amount
}

// EligibleAt returns the earliest instant the next trigger may be accepted.
// A never-triggered plan is eligible immediately (its creation time).
func (p Plan) EligibleAt() time.Time {
	if p.LastTriggeredAt.IsZero() {
		return p.CreatedAt
	}
	return p.LastTriggeredAt.Add(p.Frequency)
}

// Proposal is a not-yet-committed debit transition for one plan.
//
// ID is content-addressed over (owner, base version, new total, trigger
// time); BaseVersion pins the plan state the proposal was derived from so
// commit can detect interleaved mutations.
type Proposal struct {
	ID          string
	Owner       string
	Amount      uint64 // debit, the swap's input amount
	NewTotal    uint64
	TriggeredAt time.Time
	BaseVersion int64

	// EligibleAt is the instant the plan became due for this trigger;
	// the randomness gate adds its jitter on top of this.
	EligibleAt time.Time
}
