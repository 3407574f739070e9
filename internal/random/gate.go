package random

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ChainStarter/plutus3-dca/internal/ident"
)

// SeedLedger records consumed seeds. Implemented by the SQLite store.
// MarkSeedUsed returns false when the seed hash was already recorded.
type SeedLedger interface {
	MarkSeedUsed(ctx context.Context, seedHash, account, attemptID string, usedAt time.Time) (bool, error)
}

// Decision is the outcome of an admitted attempt: the jitter derived from
// the seed and the resulting admission deadline that has passed.
type Decision struct {
	Jitter  time.Duration
	AdmitAt time.Time
}

// Gate derives a bounded jitter from a request seed and decides whether an
// eligible attempt may proceed at the supplied now.
//
// Seed replay is detected through the SeedLedger: every observed seed is
// recorded before the admission check, so a replayed seed fails with
// SeedReused even when the replay targets a different attempt.
type Gate struct {
	maxJitter time.Duration
	seeds     SeedLedger
}

// NewGate creates a Gate. maxJitter bounds the derived jitter inclusive;
// zero disables jitter entirely (every eligible attempt admits immediately).
func NewGate(maxJitter time.Duration, seeds SeedLedger) (*Gate, error) {
	if maxJitter < 0 {
		return nil, fmt.Errorf("gate: max jitter must not be negative, got %s", maxJitter)
	}
	if seeds == nil {
		return nil, fmt.Errorf("gate: seed ledger is required")
	}
	return &Gate{maxJitter: maxJitter, seeds: seeds}, nil
}

// Admit consumes the seed and decides admission for an attempt whose plan
// became eligible at eligibleAt.
//
// Returns SeedReusedError if the seed was seen before, NotYetAdmittedError
// if the jittered deadline lies in the future. The latter is soft: the plan's
// eligibility is untouched and the caller may retry with a fresh request.
func (g *Gate) Admit(ctx context.Context, account, attemptID string, seed Seed, eligibleAt, now time.Time) (Decision, error) {
	if len(seed) < 8 {
		return Decision{}, fmt.Errorf("gate: seed too short (%d bytes, need 8)", len(seed))
	}

	hash := ident.SeedHash(seed)
	inserted, err := g.seeds.MarkSeedUsed(ctx, hash, account, attemptID, now)
	if err != nil {
		return Decision{}, fmt.Errorf("gate: record seed: %w", err)
	}
	if !inserted {
		return Decision{}, &SeedReusedError{SeedHash: hash, Account: account}
	}

	jitter := g.jitterFor(seed)
	admitAt := eligibleAt.Add(jitter)
	if now.Before(admitAt) {
		return Decision{}, &NotYetAdmittedError{AdmitAt: admitAt, Now: now}
	}

	return Decision{Jitter: jitter, AdmitAt: admitAt}, nil
}

// MaxJitter returns the configured jitter bound.
func (g *Gate) MaxJitter() time.Duration {
	return g.maxJitter
}

// jitterFor derives a jitter in [0, maxJitter] at second granularity from
// the first 8 seed bytes.
func (g *Gate) jitterFor(seed Seed) time.Duration {
	maxSec := int64(g.maxJitter / time.Second)
	if maxSec <= 0 {
		return 0
	}
	v := binary.BigEndian.Uint64(seed[:8])
	return time.Duration(v%uint64(maxSec+1)) * time.Second
}
