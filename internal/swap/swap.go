// Package swap executes guarded exchanges through an AMM router.
//
// The router's own pricing math is an external concern; the executor only
// builds the call with the price guard's minimum-output floor and reports
// the realized output. Retry policy belongs to the orchestrator, not here.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ChainStarter/plutus3-dca/internal/guard"
	"github.com/ChainStarter/plutus3-dca/internal/oracle"
)

// Router is the AMM collaborator contract. SwapExactIn either moves exactly
// amountIn and returns the realized output, or fails with no effect.
type Router interface {
	SwapExactIn(ctx context.Context, inputAsset, outputAsset string, amountIn, minOut uint64) (uint64, error)
}

// Result reports a completed swap.
type Result struct {
	InputAsset  string
	OutputAsset string
	AmountIn    uint64
	AmountOut   uint64
	MinOut      uint64
}

// FailedError wraps a router failure. No partial effect occurred.
type FailedError struct {
	InputAsset  string
	OutputAsset string
	AmountIn    uint64
	MinOut      uint64
	Err         error
}

// Error implements the error interface.
func (e *FailedError) Error() string {
	return fmt.Sprintf("swap %d %s -> %s failed (min out %d): %v",
		e.AmountIn, e.InputAsset, e.OutputAsset, e.MinOut, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *FailedError) Unwrap() error {
	return e.Err
}

// IsFailed returns true if the error is a swap execution failure.
// Uses errors.As to handle wrapped errors.
func IsFailed(err error) bool {
	var fe *FailedError
	return errors.As(err, &fe)
}

// Executor builds and submits exchange calls for one asset pair.
type Executor struct {
	router      Router
	inputAsset  string
	outputAsset string
}

// NewExecutor creates an Executor bound to a router and asset pair.
func NewExecutor(router Router, inputAsset, outputAsset string) (*Executor, error) {
	if router == nil {
		return nil, fmt.Errorf("executor: router is required")
	}
	if inputAsset == "" || outputAsset == "" {
		return nil, fmt.Errorf("executor: both assets are required")
	}
	if inputAsset == outputAsset {
		return nil, fmt.Errorf("executor: input and output asset must differ (%s)", inputAsset)
	}
	return &Executor{router: router, inputAsset: inputAsset, outputAsset: outputAsset}, nil
}

// Execute swaps amountIn input units with the minimum-output floor derived
// from the validated price. Router failure is wrapped as FailedError.
func (e *Executor) Execute(ctx context.Context, amountIn uint64, bounded guard.BoundedPrice) (Result, error) {
	if amountIn == 0 {
		return Result{}, &FailedError{
			InputAsset:  e.inputAsset,
			OutputAsset: e.outputAsset,
			Err:         fmt.Errorf("zero input amount"),
		}
	}

	minOut := bounded.MinOut(amountIn)
	out, err := e.router.SwapExactIn(ctx, e.inputAsset, e.outputAsset, amountIn, minOut)
	if err != nil {
		return Result{}, &FailedError{
			InputAsset:  e.inputAsset,
			OutputAsset: e.outputAsset,
			AmountIn:    amountIn,
			MinOut:      minOut,
			Err:         err,
		}
	}

	return Result{
		InputAsset:  e.inputAsset,
		OutputAsset: e.outputAsset,
		AmountIn:    amountIn,
		AmountOut:   out,
		MinOut:      minOut,
	}, nil
}

// ErrSlippageExceeded is returned by routers when the fill would land below
// the requested minimum output.
var ErrSlippageExceeded = errors.New("slippage exceeded")

// FixedRateRouter fills swaps at a fixed PriceScale-scaled rate. Used by the
// paper-trading CLI wiring and tests; a real deployment plugs in an RPC
// router behind the same interface.
type FixedRateRouter struct {
	mu   sync.Mutex
	rate uint64 // input units per output unit, scaled by oracle.PriceScale
}

// NewFixedRateRouter creates a router filling at the given rate.
func NewFixedRateRouter(rate uint64) (*FixedRateRouter, error) {
	if rate == 0 {
		return nil, fmt.Errorf("fixed rate router: rate must be positive")
	}
	return &FixedRateRouter{rate: rate}, nil
}

// SetRate changes the fill rate. Thread-safe; lets tests move the market.
func (r *FixedRateRouter) SetRate(rate uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rate = rate
}

// SwapExactIn implements Router.
func (r *FixedRateRouter) SwapExactIn(_ context.Context, _, _ string, amountIn, minOut uint64) (uint64, error) {
	r.mu.Lock()
	rate := r.rate
	r.mu.Unlock()

	n := new(big.Int).SetUint64(amountIn)
	n.Mul(n, new(big.Int).SetUint64(oracle.PriceScale))
	n.Div(n, new(big.Int).SetUint64(rate))
	out := n.Uint64()
	if !n.IsUint64() {
		out = ^uint64(0)
	}
	if out < minOut {
		return 0, fmt.Errorf("%w: fill %d below min out %d", ErrSlippageExceeded, out, minOut)
	}
	return out, nil
}
