// Package engine orchestrates trigger attempts against the plan ledger.
//
// Each attempt is a single atomic, sequential unit of work: read plan and
// propose the debit, validate an oracle quote, pass the randomness gate,
// execute the swap, then commit the proposal. Commit is the last step and
// is only reachable after a successful swap, so funds custody risk stays
// bounded - on any earlier failure nothing was written and nothing moved.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ChainStarter/plutus3-dca/internal/custody"
	"github.com/ChainStarter/plutus3-dca/internal/guard"
	"github.com/ChainStarter/plutus3-dca/internal/ledger"
	"github.com/ChainStarter/plutus3-dca/internal/oracle"
	"github.com/ChainStarter/plutus3-dca/internal/random"
	"github.com/ChainStarter/plutus3-dca/internal/store"
	"github.com/ChainStarter/plutus3-dca/internal/swap"
)

// Clock supplies the current time. Injected so the core never trusts a
// caller-supplied timestamp and so tests control eligibility precisely.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Journal records terminal attempt outcomes. Implemented by store.Store.
type Journal interface {
	AppendAttempt(ctx context.Context, rec store.AttemptRecord) error
}

// Config wires the engine's collaborators. All fields are required.
type Config struct {
	Ledger     *ledger.Ledger
	Guard      *guard.Guard
	Oracle     oracle.Source
	Randomness random.Provider
	Gate       *random.Gate
	Executor   *swap.Executor
	Vault      custody.Vault
	Journal    Journal

	// Pair is the oracle pair queried for every attempt, e.g. "WETH/USDT".
	Pair string
}

// Option configures engine parameters not part of the collaborator wiring.
type Option func(*Engine)

// WithClock replaces the system clock. Used by tests and replay tooling.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator replaces the UUIDv7 attempt ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithSequencer replaces the journal sequencer, typically to resume past
// the highest journaled seq after a restart.
func WithSequencer(s *Sequencer) Option {
	return func(e *Engine) { e.seq = s }
}

// Engine is the trigger orchestrator.
//
// Thread-safety model:
//   - attempts against the same account are serialized by a per-account
//     mutex; the ledger's version CAS remains the hard guarantee
//   - attempts against different accounts proceed fully in parallel;
//     there is no cross-account shared mutable state
type Engine struct {
	ledger     *ledger.Ledger
	guard      *guard.Guard
	oracle     oracle.Source
	randomness random.Provider
	gate       *random.Gate
	executor   *swap.Executor
	vault      custody.Vault
	journal    Journal
	pair       string

	clock Clock
	ids   IDGenerator
	seq   *Sequencer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Engine from the given wiring.
func New(cfg Config, opts ...Option) (*Engine, error) {
	switch {
	case cfg.Ledger == nil:
		return nil, fmt.Errorf("engine: ledger is required")
	case cfg.Guard == nil:
		return nil, fmt.Errorf("engine: price guard is required")
	case cfg.Oracle == nil:
		return nil, fmt.Errorf("engine: oracle source is required")
	case cfg.Randomness == nil:
		return nil, fmt.Errorf("engine: randomness provider is required")
	case cfg.Gate == nil:
		return nil, fmt.Errorf("engine: randomness gate is required")
	case cfg.Executor == nil:
		return nil, fmt.Errorf("engine: swap executor is required")
	case cfg.Vault == nil:
		return nil, fmt.Errorf("engine: custody vault is required")
	case cfg.Journal == nil:
		return nil, fmt.Errorf("engine: attempt journal is required")
	case cfg.Pair == "":
		return nil, fmt.Errorf("engine: oracle pair is required")
	}

	e := &Engine{
		ledger:     cfg.Ledger,
		guard:      cfg.Guard,
		oracle:     cfg.Oracle,
		randomness: cfg.Randomness,
		gate:       cfg.Gate,
		executor:   cfg.Executor,
		vault:      cfg.Vault,
		journal:    cfg.Journal,
		pair:       cfg.Pair,
		clock:      systemClock{},
		ids:        UUIDv7Generator{},
		seq:        NewSequencer(),
		locks:      make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// CreatePlan registers a recurring-purchase plan for owner and takes the
// backing funds into custody.
//
// Ordering contract: funds move first, the ledger record is written second
// and assumes the transfer succeeded. If the record write fails after a
// successful transfer, the transfer is compensated so funds are never
// stranded in custody without a plan.
func (e *Engine) CreatePlan(ctx context.Context, owner string, frequency time.Duration, amount, total uint64) (ledger.Plan, error) {
	now := e.clock.Now()

	if owner == "" {
		return ledger.Plan{}, &ledger.Error{Code: ledger.CodeInvalidParameters, Message: "owner is required"}
	}
	if err := ledger.ValidateParams(frequency, amount, total); err != nil {
		return ledger.Plan{}, err
	}

	// Cheap existence check before moving funds. The ledger re-checks
	// authoritatively; this only avoids a pointless transfer round-trip.
	if _, err := e.ledger.Get(ctx, owner); err == nil {
		return ledger.Plan{}, &ledger.Error{Code: ledger.CodeAlreadyExists, Owner: owner, Message: "a plan already exists for this account"}
	} else if !ledger.IsNotFound(err) {
		return ledger.Plan{}, err
	}

	if err := e.vault.TransferIn(ctx, owner, total); err != nil {
		return ledger.Plan{}, fmt.Errorf("create plan for %s: %w", owner, err)
	}

	plan, err := e.ledger.Create(ctx, owner, frequency, amount, total, now)
	if err != nil {
		if rerr := e.vault.TransferOut(ctx, owner, total); rerr != nil {
			slog.Error("compensating transfer failed after create rejection",
				"owner", owner,
				"amount", total,
				"create_error", err,
				"transfer_error", rerr,
			)
		}
		return ledger.Plan{}, err
	}

	return plan, nil
}

// GetPlan returns the plan for an account.
func (e *Engine) GetPlan(ctx context.Context, account string) (ledger.Plan, error) {
	return e.ledger.Get(ctx, account)
}

// TriggerPlan attempts to execute one period of the account's plan.
//
// All-or-nothing: the swap never executes if any prior gate failed, and the
// ledger never commits if the swap failed. Soft rejections (NotDue,
// NotYetAdmitted, stale or out-of-band quotes) leave the plan's eligibility
// untouched and may be retried later.
func (e *Engine) TriggerPlan(ctx context.Context, account string) (swap.Result, error) {
	lock := e.lockFor(account)
	lock.Lock()
	defer lock.Unlock()

	now := e.clock.Now()
	att := newAttempt(e.ids.Generate(), account, now)

	slog.Debug("trigger requested",
		"attempt_id", att.id,
		"account", account,
		"now", now.Unix(),
	)

	// Time and budget gates; yields the uncommitted debit proposal.
	prop, err := e.ledger.Propose(ctx, account, now)
	if err != nil {
		return swap.Result{}, e.conclude(ctx, att, err)
	}
	att.amountIn = prop.Amount
	att.advance(StateGated)

	// Price gate: quote must be fresh and in band before it bounds the swap.
	quote, err := e.oracle.LatestQuote(ctx, e.pair)
	if err != nil {
		return swap.Result{}, e.conclude(ctx, att, err)
	}
	bounded, err := e.guard.Validate(quote, now)
	if err != nil {
		return swap.Result{}, e.conclude(ctx, att, err)
	}
	att.advance(StatePriceChecked)

	// Randomness gate: request-bound seed, bounded jitter admission.
	seed, err := e.randomness.RequestRandom(ctx, att.id)
	if err != nil {
		return swap.Result{}, e.conclude(ctx, att, err)
	}
	decision, err := e.gate.Admit(ctx, account, att.id, seed, prop.EligibleAt, now)
	if err != nil {
		return swap.Result{}, e.conclude(ctx, att, err)
	}
	att.advance(StateRandomnessAdmitted)

	slog.Debug("attempt admitted",
		"attempt_id", att.id,
		"account", account,
		"jitter", decision.Jitter,
		"admit_at", decision.AdmitAt.Unix(),
	)

	// External effect. On failure nothing has been written anywhere.
	result, err := e.executor.Execute(ctx, prop.Amount, bounded)
	if err != nil {
		return swap.Result{}, e.conclude(ctx, att, err)
	}
	att.advance(StateSwapped)

	// Commit is the only ledger write and the last step.
	plan, err := e.ledger.Commit(ctx, prop)
	if err != nil {
		return swap.Result{}, e.conclude(ctx, att, err)
	}
	att.advance(StateCommitted)

	e.journalOutcome(ctx, att, "", result.AmountOut)

	slog.Info("trigger committed",
		"attempt_id", att.id,
		"account", account,
		"proposal_id", prop.ID,
		"amount_in", result.AmountIn,
		"amount_out", result.AmountOut,
		"remaining_total", plan.Total,
	)

	return result, nil
}

// Sequencer returns the journal sequencer. Used for diagnostics and tests.
func (e *Engine) Sequencer() *Sequencer {
	return e.seq
}

// lockFor returns the mutex serializing attempts for one account.
func (e *Engine) lockFor(account string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[account]
	if !ok {
		l = &sync.Mutex{}
		e.locks[account] = l
	}
	return l
}

// conclude journals a terminal non-committed outcome and returns err.
func (e *Engine) conclude(ctx context.Context, att *attempt, err error) error {
	state, reason := classify(err)
	att.advance(state)
	e.journalOutcome(ctx, att, reason, 0)

	switch state {
	case StateFailed:
		slog.Error("trigger attempt failed",
			"attempt_id", att.id,
			"account", att.account,
			"reason", reason,
			"error", err,
		)
	default:
		slog.Warn("trigger attempt rejected",
			"attempt_id", att.id,
			"account", att.account,
			"reason", reason,
		)
	}

	return err
}

// journalOutcome appends the attempt's terminal state to the journal.
// Journal failure is logged, never masks the attempt outcome.
func (e *Engine) journalOutcome(ctx context.Context, att *attempt, reason string, amountOut uint64) {
	rec := store.AttemptRecord{
		ID:        att.id,
		Account:   att.account,
		State:     string(att.state),
		Reason:    reason,
		AmountIn:  att.amountIn,
		AmountOut: amountOut,
		Seq:       e.seq.Next(),
		CreatedAt: att.startedAt.Unix(),
	}
	if err := e.journal.AppendAttempt(ctx, rec); err != nil {
		slog.Error("attempt journal write failed",
			"attempt_id", att.id,
			"account", att.account,
			"state", att.state,
			"error", err,
		)
	}
}
