package random

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySeedLedger is an in-memory SeedLedger for gate tests.
type memorySeedLedger struct {
	seen map[string]bool
	err  error
}

func newMemorySeedLedger() *memorySeedLedger {
	return &memorySeedLedger{seen: make(map[string]bool)}
}

func (m *memorySeedLedger) MarkSeedUsed(_ context.Context, seedHash, _, _ string, _ time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[seedHash] {
		return false, nil
	}
	m.seen[seedHash] = true
	return true, nil
}

// seedWithJitter builds a seed whose first 8 bytes encode v, so the derived
// jitter is v mod (maxSec+1) seconds.
func seedWithJitter(v uint64) Seed {
	s := make(Seed, 32)
	binary.BigEndian.PutUint64(s[:8], v)
	return s
}

// TestLocalProvider_RequestBound tests seed derivation properties.
func TestLocalProvider_RequestBound(t *testing.T) {
	p, err := NewLocalProvider([]byte("operator-secret"))
	require.NoError(t, err)
	ctx := context.Background()

	s1, err := p.RequestRandom(ctx, "req-1")
	require.NoError(t, err)
	s2, err := p.RequestRandom(ctx, "req-2")
	require.NoError(t, err)
	s1again, err := p.RequestRandom(ctx, "req-1")
	require.NoError(t, err)

	assert.Len(t, []byte(s1), 32)
	assert.NotEqual(t, s1, s2, "different requests must yield different seeds")
	assert.Equal(t, s1, s1again, "same request must be reproducible for audit")
}

// TestLocalProvider_DifferentSecrets tests that seeds depend on the secret.
func TestLocalProvider_DifferentSecrets(t *testing.T) {
	p1, err := NewLocalProvider([]byte("secret-a"))
	require.NoError(t, err)
	p2, err := NewLocalProvider([]byte("secret-b"))
	require.NoError(t, err)

	s1, err := p1.RequestRandom(context.Background(), "req")
	require.NoError(t, err)
	s2, err := p2.RequestRandom(context.Background(), "req")
	require.NoError(t, err)

	assert.NotEqual(t, s1, s2)
}

// TestLocalProvider_EmptyInputs tests constructor and request validation.
func TestLocalProvider_EmptyInputs(t *testing.T) {
	_, err := NewLocalProvider(nil)
	require.Error(t, err)

	p, err := NewLocalProvider([]byte("s"))
	require.NoError(t, err)

	_, err = p.RequestRandom(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

// TestGate_AdmitsAfterJitteredDeadline tests the admission decision.
func TestGate_AdmitsAfterJitteredDeadline(t *testing.T) {
	g, err := NewGate(10*time.Second, newMemorySeedLedger())
	require.NoError(t, err)

	eligibleAt := time.Unix(1700000000, 0)
	seed := seedWithJitter(7) // 7 mod 11 = 7s jitter

	// 5s after eligibility: jitter deadline not reached.
	_, err = g.Admit(context.Background(), "alice", "attempt-1", seed, eligibleAt, eligibleAt.Add(5*time.Second))
	require.Error(t, err)
	assert.True(t, IsNotYetAdmitted(err))

	var ne *NotYetAdmittedError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, eligibleAt.Add(7*time.Second), ne.AdmitAt)

	// Fresh seed, 8s after eligibility: admitted.
	seed2 := seedWithJitter(18) // 18 mod 11 = 7s jitter, different hash
	dec, err := g.Admit(context.Background(), "alice", "attempt-2", seed2, eligibleAt, eligibleAt.Add(8*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, dec.Jitter)
	assert.Equal(t, eligibleAt.Add(7*time.Second), dec.AdmitAt)
}

// TestGate_JitterBounded tests that jitter never exceeds the bound.
func TestGate_JitterBounded(t *testing.T) {
	g, err := NewGate(3*time.Second, newMemorySeedLedger())
	require.NoError(t, err)

	eligibleAt := time.Unix(1700000000, 0)
	late := eligibleAt.Add(time.Hour)

	for v := uint64(0); v < 20; v++ {
		dec, err := g.Admit(context.Background(), "alice", "a", seedWithJitter(v), eligibleAt, late)
		require.NoError(t, err)
		assert.LessOrEqual(t, dec.Jitter, 3*time.Second)
		assert.Equal(t, time.Duration(v%4)*time.Second, dec.Jitter)
	}
}

// TestGate_ZeroJitterAdmitsImmediately tests the disabled-jitter mode.
func TestGate_ZeroJitterAdmitsImmediately(t *testing.T) {
	g, err := NewGate(0, newMemorySeedLedger())
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	dec, err := g.Admit(context.Background(), "alice", "a", seedWithJitter(12345), at, at)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), dec.Jitter)
	assert.Equal(t, at, dec.AdmitAt)
}

// TestGate_SeedReuse tests replay detection.
func TestGate_SeedReuse(t *testing.T) {
	g, err := NewGate(0, newMemorySeedLedger())
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	seed := seedWithJitter(1)

	_, err = g.Admit(context.Background(), "alice", "attempt-1", seed, at, at)
	require.NoError(t, err)

	// Same seed on a later attempt, even for another account: rejected.
	_, err = g.Admit(context.Background(), "bob", "attempt-2", seed, at, at)
	require.Error(t, err)
	assert.True(t, IsSeedReused(err))

	var se *SeedReusedError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bob", se.Account)
}

// TestGate_SeedConsumedEvenWhenNotAdmitted tests that a seed observed on a
// NotYetAdmitted attempt cannot be replayed later.
func TestGate_SeedConsumedEvenWhenNotAdmitted(t *testing.T) {
	g, err := NewGate(10*time.Second, newMemorySeedLedger())
	require.NoError(t, err)

	eligibleAt := time.Unix(1700000000, 0)
	seed := seedWithJitter(9)

	_, err = g.Admit(context.Background(), "alice", "attempt-1", seed, eligibleAt, eligibleAt)
	require.Error(t, err)
	assert.True(t, IsNotYetAdmitted(err))

	_, err = g.Admit(context.Background(), "alice", "attempt-2", seed, eligibleAt, eligibleAt.Add(time.Minute))
	require.Error(t, err)
	assert.True(t, IsSeedReused(err))
}

// TestGate_ShortSeedRejected tests the minimum seed length.
func TestGate_ShortSeedRejected(t *testing.T) {
	g, err := NewGate(0, newMemorySeedLedger())
	require.NoError(t, err)

	_, err = g.Admit(context.Background(), "alice", "a", Seed{1, 2, 3}, time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed too short")
}

// TestNewGate_Validation tests constructor validation.
func TestNewGate_Validation(t *testing.T) {
	_, err := NewGate(-time.Second, newMemorySeedLedger())
	require.Error(t, err)

	_, err = NewGate(time.Second, nil)
	require.Error(t, err)
}
