package custody

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryVault_TransferInMovesExactAmount tests wallet to custody moves.
func TestMemoryVault_TransferInMovesExactAmount(t *testing.T) {
	v := NewMemoryVault()
	v.Fund("alice", 1000)

	require.NoError(t, v.TransferIn(context.Background(), "alice", 400))
	assert.Equal(t, uint64(600), v.Wallet("alice"))
	assert.Equal(t, uint64(400), v.Held("alice"))
}

// TestMemoryVault_TransferInInsufficient tests that nothing moves on failure.
func TestMemoryVault_TransferInInsufficient(t *testing.T) {
	v := NewMemoryVault()
	v.Fund("alice", 100)

	err := v.TransferIn(context.Background(), "alice", 400)
	require.Error(t, err)
	assert.True(t, IsTransferFailed(err))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, uint64(100), v.Wallet("alice"))
	assert.Equal(t, uint64(0), v.Held("alice"))
}

// TestMemoryVault_TransferOutBoundedByHeld tests the release bound.
func TestMemoryVault_TransferOutBoundedByHeld(t *testing.T) {
	v := NewMemoryVault()
	v.Fund("alice", 1000)
	require.NoError(t, v.TransferIn(context.Background(), "alice", 1000))

	err := v.TransferOut(context.Background(), "alice", 1001)
	require.Error(t, err)

	var te *TransferFailedError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, DirectionOut, te.Direction)
	assert.Equal(t, uint64(1001), te.Amount)

	require.NoError(t, v.TransferOut(context.Background(), "alice", 1000))
	assert.Equal(t, uint64(1000), v.Wallet("alice"))
	assert.Equal(t, uint64(0), v.Held("alice"))
}

// TestMemoryVault_AccountsIndependent tests per-account isolation.
func TestMemoryVault_AccountsIndependent(t *testing.T) {
	v := NewMemoryVault()
	v.Fund("alice", 500)
	v.Fund("bob", 300)

	require.NoError(t, v.TransferIn(context.Background(), "alice", 500))

	assert.Equal(t, uint64(500), v.Held("alice"))
	assert.Equal(t, uint64(0), v.Held("bob"))
	assert.Equal(t, uint64(300), v.Wallet("bob"))
}
