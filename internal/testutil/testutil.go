// Package testutil provides deterministic test doubles for the engine's
// injected collaborators: clock, attempt IDs and randomness seeds.
//
// With all three fixed, a scenario run against the engine produces
// byte-identical journal output, which is what the golden tests compare.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ChainStarter/plutus3-dca/internal/random"
)

// Clock is a manually advanced clock implementing engine.Clock.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

// Now returns the current frozen time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to an absolute instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

// FixedIDGenerator returns predetermined attempt IDs in order.
//
// Panics when all IDs have been consumed. Fail-fast to catch test
// misconfiguration (the scenario triggered more attempts than expected).
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// FixedSeedSource returns predetermined seeds in order, ignoring the
// request ID. Implements random.Provider.
//
// Unlike the HMAC-based LocalProvider, seeds here are chosen by the test,
// so jitter values are known in advance and golden output stays stable.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedSeedSource struct {
	mu    sync.Mutex
	seeds []random.Seed
	idx   int
}

// NewFixedSeedSource creates a provider that returns seeds in order.
func NewFixedSeedSource(seeds ...random.Seed) *FixedSeedSource {
	return &FixedSeedSource{seeds: seeds}
}

// RequestRandom returns the next predetermined seed.
// Panics when all seeds have been consumed.
func (s *FixedSeedSource) RequestRandom(_ context.Context, _ string) (random.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.seeds) {
		panic("FixedSeedSource: all seeds exhausted")
	}
	seed := s.seeds[s.idx]
	s.idx++
	return seed, nil
}

// SeedWithJitter builds an 8-byte seed whose gate jitter is exactly
// jitterSec seconds for any gate whose max jitter exceeds jitterSec.
func SeedWithJitter(jitterSec uint64) random.Seed {
	seed := make(random.Seed, 8)
	for i := 7; i >= 0; i-- {
		seed[i] = byte(jitterSec)
		jitterSec >>= 8
	}
	return seed
}
