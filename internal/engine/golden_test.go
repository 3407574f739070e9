package engine

import (
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/ChainStarter/plutus3-dca/internal/ident"
	"github.com/ChainStarter/plutus3-dca/internal/ledger"
	"github.com/ChainStarter/plutus3-dca/internal/store"
	"github.com/ChainStarter/plutus3-dca/internal/testutil"
)

// journalSnapshot serializes the attempt journal as canonical JSON so the
// golden comparison is byte-stable across runs and platforms.
func journalSnapshot(t *testing.T, recs []store.AttemptRecord) []byte {
	t.Helper()

	attempts := make([]any, 0, len(recs))
	for _, rec := range recs {
		attempts = append(attempts, map[string]any{
			"id":         rec.ID,
			"account":    rec.Account,
			"state":      rec.State,
			"reason":     rec.Reason,
			"amount_in":  rec.AmountIn,
			"amount_out": rec.AmountOut,
			"seq":        rec.Seq,
			"created_at": rec.CreatedAt,
		})
	}

	out, err := ident.MarshalCanonical(map[string]any{"attempts": attempts})
	require.NoError(t, err)
	return out
}

// TestTriggerJournal_Golden runs a fixed four-attempt scenario and compares
// the resulting journal byte-for-byte against the golden snapshot:
// a commit, a not-due rejection, a swap failure after the market moves away
// from the quote, and a successful retry once it comes back.
func TestTriggerJournal_Golden(t *testing.T) {
	h := newHarness(t, harnessOpts{
		provider: testutil.NewFixedSeedSource(
			testutil.SeedWithJitter(1),
			testutil.SeedWithJitter(2),
			testutil.SeedWithJitter(3),
			testutil.SeedWithJitter(4),
		),
		opts: []Option{
			WithIDGenerator(testutil.NewFixedIDGenerator(
				"attempt-001", "attempt-002", "attempt-003", "attempt-004",
			)),
		},
	})
	ctx := context.Background()
	h.createFundedPlan(t)

	_, err := h.engine.TriggerPlan(ctx, testAccount)
	require.NoError(t, err)

	_, err = h.engine.TriggerPlan(ctx, testAccount)
	require.True(t, ledger.IsNotDue(err))

	h.clock.Advance(time.Minute)
	h.router.SetRate(testPrice + testPrice/10)
	_, err = h.engine.TriggerPlan(ctx, testAccount)
	require.Error(t, err)

	h.clock.Advance(time.Minute)
	h.router.SetRate(testPrice)
	_, err = h.engine.TriggerPlan(ctx, testAccount)
	require.NoError(t, err)

	recs := h.attempts(t)
	require.Len(t, recs, 4)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "trigger_journal", journalSnapshot(t, recs))
}
