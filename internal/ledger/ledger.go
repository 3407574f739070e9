package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChainStarter/plutus3-dca/internal/ident"
	"github.com/ChainStarter/plutus3-dca/internal/store"
)

// Ledger mediates all access to persisted plan records.
type Ledger struct {
	store *store.Store
}

// New creates a Ledger backed by the given store.
func New(s *store.Store) *Ledger {
	return &Ledger{store: s}
}

// ValidateParams checks plan creation parameters without touching storage.
// Exposed so the orchestrator can reject bad input before moving funds.
func ValidateParams(frequency time.Duration, amount, total uint64) error {
	if frequency < time.Second {
		return &Error{Code: CodeInvalidParameters, Message: fmt.Sprintf("frequency must be at least one second, got %s", frequency)}
	}
	if amount == 0 {
		return &Error{Code: CodeInvalidParameters, Message: "amount must be positive"}
	}
	if total < amount {
		return &Error{Code: CodeInvalidParameters, Message: fmt.Sprintf("total %d must cover at least one period amount %d", total, amount)}
	}
	return nil
}

// Create stores a new plan for owner. The backing funds transfer is the
// orchestrator's responsibility and must have succeeded before this call.
//
// Rejects AlreadyExists when the owner has a plan, active or exhausted -
// creation never overwrites.
func (l *Ledger) Create(ctx context.Context, owner string, frequency time.Duration, amount, total uint64, now time.Time) (Plan, error) {
	if owner == "" {
		return Plan{}, &Error{Code: CodeInvalidParameters, Message: "owner is required"}
	}
	if err := ValidateParams(frequency, amount, total); err != nil {
		return Plan{}, err
	}

	rec := store.PlanRecord{
		Owner:        owner,
		FrequencySec: int64(frequency / time.Second),
		Amount:       amount,
		Total:        total,
		CreatedAt:    now.Unix(),
	}
	if err := l.store.InsertPlan(ctx, rec); err != nil {
		if errors.Is(err, store.ErrPlanExists) {
			return Plan{}, &Error{Code: CodeAlreadyExists, Owner: owner, Message: "a plan already exists for this account"}
		}
		return Plan{}, fmt.Errorf("create plan for %s: %w", owner, err)
	}

	slog.Info("plan created",
		"owner", owner,
		"frequency", frequency,
		"amount", amount,
		"total", total,
	)

	return planFromRecord(rec), nil
}

// Get returns the plan for an account.
func (l *Ledger) Get(ctx context.Context, owner string) (Plan, error) {
	rec, err := l.store.ReadPlan(ctx, owner)
	if errors.Is(err, store.ErrPlanNotFound) {
		return Plan{}, &Error{Code: CodeNotFound, Owner: owner, Message: "no plan for this account"}
	}
	if err != nil {
		return Plan{}, fmt.Errorf("get plan for %s: %w", owner, err)
	}
	return planFromRecord(rec), nil
}

// Propose computes the debit transition for an eligible trigger at now and
// returns it WITHOUT committing. No state changes.
//
// The budget gate is checked before the time gate: an exhausted plan reports
// Exhausted regardless of elapsed time, because exhaustion is permanent
// while NotDue is not.
func (l *Ledger) Propose(ctx context.Context, owner string, now time.Time) (Proposal, error) {
	plan, err := l.Get(ctx, owner)
	if err != nil {
		return Proposal{}, err
	}

	if plan.Exhausted() {
		return Proposal{}, &Error{
			Code:    CodeExhausted,
			Owner:   owner,
			Message: fmt.Sprintf("remaining total %d is below period amount %d", plan.Total, plan.Amount),
		}
	}

	if !plan.LastTriggeredAt.IsZero() && now.Sub(plan.LastTriggeredAt) < plan.Frequency {
		next := plan.LastTriggeredAt.Add(plan.Frequency)
		return Proposal{}, &Error{
			Code:           CodeNotDue,
			Owner:          owner,
			Message:        fmt.Sprintf("next trigger eligible at %s", next.UTC().Format(time.RFC3339)),
			NextEligibleAt: next,
		}
	}

	newTotal := plan.Total - plan.Amount
	id, err := ident.ProposalID(owner, plan.Version, newTotal, now.Unix())
	if err != nil {
		return Proposal{}, fmt.Errorf("propose trigger for %s: %w", owner, err)
	}

	return Proposal{
		ID:          id,
		Owner:       owner,
		Amount:      plan.Amount,
		NewTotal:    newTotal,
		TriggeredAt: now,
		BaseVersion: plan.Version,
		EligibleAt:  plan.EligibleAt(),
	}, nil
}

// Commit writes a proposed transition. The store-level version CAS is the
// mutual-exclusion boundary: of two attempts proposed against the same plan
// state, exactly one commits and the other gets StaleProposal. Committing
// the same proposal twice fails the second time for the same reason.
func (l *Ledger) Commit(ctx context.Context, prop Proposal) (Plan, error) {
	rec, committed, err := l.store.CommitPlan(ctx, prop.Owner, prop.BaseVersion, prop.NewTotal, prop.TriggeredAt.Unix())
	if err != nil {
		return Plan{}, fmt.Errorf("commit proposal %s: %w", prop.ID, err)
	}
	if !committed {
		return Plan{}, &Error{
			Code:    CodeStaleProposal,
			Owner:   prop.Owner,
			Message: fmt.Sprintf("plan moved past version %d; re-read and retry", prop.BaseVersion),
		}
	}

	slog.Info("plan debit committed",
		"owner", prop.Owner,
		"proposal_id", prop.ID,
		"amount", prop.Amount,
		"remaining_total", rec.Total,
		"version", rec.Version,
	)

	return planFromRecord(rec), nil
}

// planFromRecord converts the persisted shape to the domain shape.
func planFromRecord(rec store.PlanRecord) Plan {
	p := Plan{
		Owner:     rec.Owner,
		Frequency: time.Duration(rec.FrequencySec) * time.Second,
		Amount:    rec.Amount,
		Total:     rec.Total,
		Version:   rec.Version,
		CreatedAt: time.Unix(rec.CreatedAt, 0).UTC(),
	}
	if rec.LastTriggeredAt != 0 {
		p.LastTriggeredAt = time.Unix(rec.LastTriggeredAt, 0).UTC()
	}
	return p
}
