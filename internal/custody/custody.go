// Package custody defines the funds-custody collaborator contract.
//
// The engine holds the stable-asset balance backing a plan's remaining total
// on the account's behalf, from plan creation until fully spent. The token
// transfer primitive itself is external; this package only models the narrow
// contract the core calls through, plus an in-memory vault used by the
// paper-trading CLI wiring and tests.
package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Vault moves funds between an account's wallet and engine custody.
// Both operations are atomic with respect to balances: success implies the
// balance moved exactly amount, failure implies nothing moved.
type Vault interface {
	TransferIn(ctx context.Context, account string, amount uint64) error
	TransferOut(ctx context.Context, account string, amount uint64) error
}

// Transfer directions reported by TransferFailedError.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// TransferFailedError reports a failed custody transfer.
type TransferFailedError struct {
	Direction string
	Account   string
	Amount    uint64
	Err       error
}

// Error implements the error interface.
func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("transfer %s failed for %s (amount=%d): %v", e.Direction, e.Account, e.Amount, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *TransferFailedError) Unwrap() error {
	return e.Err
}

// IsTransferFailed returns true if the error is a custody transfer failure.
// Uses errors.As to handle wrapped errors.
func IsTransferFailed(err error) bool {
	var te *TransferFailedError
	return errors.As(err, &te)
}

// ErrInsufficientFunds is the cause reported when a wallet or custody
// balance cannot cover the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// MemoryVault is an in-memory Vault tracking wallet and custody balances
// per account. Thread-safe.
type MemoryVault struct {
	mu      sync.Mutex
	wallets map[string]uint64
	held    map[string]uint64
}

// NewMemoryVault creates an empty vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		wallets: make(map[string]uint64),
		held:    make(map[string]uint64),
	}
}

// Fund credits an account's wallet. Test and CLI setup helper.
func (v *MemoryVault) Fund(account string, amount uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.wallets[account] += amount
}

// TransferIn moves amount from the account's wallet into custody.
func (v *MemoryVault) TransferIn(_ context.Context, account string, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.wallets[account] < amount {
		return &TransferFailedError{
			Direction: DirectionIn,
			Account:   account,
			Amount:    amount,
			Err:       ErrInsufficientFunds,
		}
	}
	v.wallets[account] -= amount
	v.held[account] += amount
	return nil
}

// TransferOut releases amount from custody back to the account's wallet.
// Never releases more than is currently held for the account.
func (v *MemoryVault) TransferOut(_ context.Context, account string, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.held[account] < amount {
		return &TransferFailedError{
			Direction: DirectionOut,
			Account:   account,
			Amount:    amount,
			Err:       ErrInsufficientFunds,
		}
	}
	v.held[account] -= amount
	v.wallets[account] += amount
	return nil
}

// Wallet returns the account's wallet balance.
func (v *MemoryVault) Wallet(account string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wallets[account]
}

// Held returns the account's custody balance.
func (v *MemoryVault) Held(account string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.held[account]
}
