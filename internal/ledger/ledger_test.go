package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChainStarter/plutus3-dca/internal/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

var t0 = time.Unix(1700000000, 0).UTC()

// TestCreate_RoundTrip tests that creation stores values unchanged with the
// never-triggered sentinel.
func TestCreate_RoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	created, err := l.Create(ctx, "alice", 24*time.Hour, 100, 1000, t0)
	require.NoError(t, err)

	plan, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, plan)
	assert.Equal(t, "alice", plan.Owner)
	assert.Equal(t, 24*time.Hour, plan.Frequency)
	assert.Equal(t, uint64(100), plan.Amount)
	assert.Equal(t, uint64(1000), plan.Total)
	assert.True(t, plan.LastTriggeredAt.IsZero())
	assert.True(t, plan.Active())
	assert.False(t, plan.Exhausted())
}

// TestCreate_InvalidParameters tests parameter validation.
func TestCreate_InvalidParameters(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		owner     string
		frequency time.Duration
		amount    uint64
		total     uint64
	}{
		{"zero frequency", "alice", 0, 100, 1000},
		{"sub-second frequency", "alice", 500 * time.Millisecond, 100, 1000},
		{"zero amount", "alice", time.Hour, 0, 1000},
		{"total below amount", "alice", time.Hour, 100, 99},
		{"empty owner", "", time.Hour, 100, 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Create(ctx, tc.owner, tc.frequency, tc.amount, tc.total, t0)
			require.Error(t, err)
			assert.True(t, IsInvalidParameters(err))
		})
	}
}

// TestCreate_SecondPlanRejected tests that re-creation never overwrites.
func TestCreate_SecondPlanRejected(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Create(ctx, "alice", time.Hour, 100, 1000, t0)
	require.NoError(t, err)

	_, err = l.Create(ctx, "alice", time.Minute, 7, 7, t0)
	require.Error(t, err)
	assert.True(t, IsAlreadyExists(err))

	plan, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), plan.Total)
	assert.Equal(t, time.Hour, plan.Frequency)
}

// TestGet_NotFound tests the missing-plan error.
func TestGet_NotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// TestPropose_FirstTriggerAlwaysEligible tests the lastTriggeredAt=0 case.
func TestPropose_FirstTriggerAlwaysEligible(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, err := l.Create(ctx, "alice", 24*time.Hour, 100, 1000, t0)
	require.NoError(t, err)

	// Immediately after creation, long before a frequency interval passed.
	prop, err := l.Propose(ctx, "alice", t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), prop.Amount)
	assert.Equal(t, uint64(900), prop.NewTotal)
	assert.Equal(t, int64(0), prop.BaseVersion)
	assert.NotEmpty(t, prop.ID)
}

// TestPropose_DoesNotMutate tests that a proposal alone changes nothing.
func TestPropose_DoesNotMutate(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, err := l.Create(ctx, "alice", time.Hour, 100, 1000, t0)
	require.NoError(t, err)

	before, err := l.Get(ctx, "alice")
	require.NoError(t, err)

	_, err = l.Propose(ctx, "alice", t0.Add(time.Second))
	require.NoError(t, err)

	after, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// TestPropose_NotDue tests the time gate.
func TestPropose_NotDue(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, err := l.Create(ctx, "alice", time.Hour, 100, 1000, t0)
	require.NoError(t, err)

	prop, err := l.Propose(ctx, "alice", t0)
	require.NoError(t, err)
	_, err = l.Commit(ctx, prop)
	require.NoError(t, err)

	// 30 minutes later: not due.
	_, err = l.Propose(ctx, "alice", t0.Add(30*time.Minute))
	require.Error(t, err)
	assert.True(t, IsNotDue(err))

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, t0.Add(time.Hour), le.NextEligibleAt)

	// State unchanged by the rejection.
	plan, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(900), plan.Total)
	assert.Equal(t, t0, plan.LastTriggeredAt)

	// Exactly at the boundary: due again.
	_, err = l.Propose(ctx, "alice", t0.Add(time.Hour))
	assert.NoError(t, err)
}

// TestPropose_ExhaustedBeatsNotDue tests that exhaustion is reported
// regardless of elapsed time.
func TestPropose_ExhaustedBeatsNotDue(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, err := l.Create(ctx, "alice", time.Hour, 100, 100, t0)
	require.NoError(t, err)

	prop, err := l.Propose(ctx, "alice", t0)
	require.NoError(t, err)
	_, err = l.Commit(ctx, prop)
	require.NoError(t, err)

	// Immediately after (would be NotDue) and much later: both Exhausted.
	for _, at := range []time.Time{t0.Add(time.Second), t0.Add(1000 * time.Hour)} {
		_, err = l.Propose(ctx, "alice", at)
		require.Error(t, err)
		assert.True(t, IsExhausted(err))
	}
}

// TestCommit_DebitsExactly tests the debit invariant.
func TestCommit_DebitsExactly(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, err := l.Create(ctx, "alice", time.Second, 100, 1000, t0)
	require.NoError(t, err)

	at := t0.Add(time.Minute)
	prop, err := l.Propose(ctx, "alice", at)
	require.NoError(t, err)

	plan, err := l.Commit(ctx, prop)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), plan.Total)
	assert.Equal(t, at, plan.LastTriggeredAt)
	assert.Equal(t, int64(1), plan.Version)
}

// TestCommit_SameProposalTwice tests double-commit rejection.
func TestCommit_SameProposalTwice(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, err := l.Create(ctx, "alice", time.Second, 100, 1000, t0)
	require.NoError(t, err)

	prop, err := l.Propose(ctx, "alice", t0.Add(time.Minute))
	require.NoError(t, err)

	_, err = l.Commit(ctx, prop)
	require.NoError(t, err)

	_, err = l.Commit(ctx, prop)
	require.Error(t, err)
	assert.True(t, IsStaleProposal(err))

	// No double debit.
	plan, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(900), plan.Total)
}

// TestCommit_ConcurrentProposalsSingleWinner tests that of two proposals
// derived from the same state, exactly one commits.
func TestCommit_ConcurrentProposalsSingleWinner(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	_, err := l.Create(ctx, "alice", time.Second, 100, 1000, t0)
	require.NoError(t, err)

	at := t0.Add(time.Minute)
	prop1, err := l.Propose(ctx, "alice", at)
	require.NoError(t, err)
	prop2, err := l.Propose(ctx, "alice", at.Add(time.Second))
	require.NoError(t, err)

	_, err = l.Commit(ctx, prop1)
	require.NoError(t, err)

	_, err = l.Commit(ctx, prop2)
	require.Error(t, err)
	assert.True(t, IsStaleProposal(err))

	plan, err := l.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(900), plan.Total)
	assert.Equal(t, int64(1), plan.Version)
}

// TestDrainScenario tests the reference scenario: frequency=1s, amount=100,
// total=1000 drains in exactly ten triggers, then Exhausted.
func TestDrainScenario(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	plan, err := l.Create(ctx, "alice", time.Second, 100, 1000, t0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), plan.Total)
	assert.True(t, plan.LastTriggeredAt.IsZero())

	at := t0
	for i := 0; i < 10; i++ {
		at = at.Add(time.Second)
		prop, err := l.Propose(ctx, "alice", at)
		require.NoError(t, err, "trigger %d should be eligible", i+1)

		before := plan
		plan, err = l.Commit(ctx, prop)
		require.NoError(t, err)
		assert.Equal(t, before.Total-100, plan.Total)
		assert.True(t, plan.LastTriggeredAt.After(before.LastTriggeredAt))
	}

	assert.Equal(t, uint64(0), plan.Total)
	assert.True(t, plan.Exhausted())

	_, err = l.Propose(ctx, "alice", at.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, IsExhausted(err))
}
