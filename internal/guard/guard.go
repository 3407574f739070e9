// Package guard validates oracle quotes before they may bound a swap.
//
// A quote passes the guard only if it is fresh (within the staleness bound)
// and within the configured deviation band around the reference price. The
// guard never substitutes a stale or out-of-band value; rejection is soft
// and the caller retries once a fresh quote is available.
package guard

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ChainStarter/plutus3-dca/internal/oracle"
)

// BpsDenominator is the basis-point scale used for deviation and slippage.
const BpsDenominator = 10_000

// Config holds the validation bounds.
type Config struct {
	// MaxStaleness is the maximum accepted age of a quote. Quotes with
	// timestamps in the future are rejected as stale as well.
	MaxStaleness time.Duration

	// MaxDeviationBps bounds |price - reference| / reference.
	MaxDeviationBps uint64

	// ReferencePrice is the configured reference/floor price, scaled by
	// oracle.PriceScale. Guards against a manipulated oracle distorting
	// the swap's minimum-output bound.
	ReferencePrice uint64

	// SlippageBps is the allowance subtracted from the quote-implied
	// output when computing the minimum acceptable swap output.
	SlippageBps uint64
}

// Guard validates quotes against configured bounds. Pure; no mutation.
type Guard struct {
	cfg Config
}

// New creates a Guard, rejecting nonsensical bounds up front.
func New(cfg Config) (*Guard, error) {
	if cfg.MaxStaleness <= 0 {
		return nil, fmt.Errorf("guard: max staleness must be positive, got %s", cfg.MaxStaleness)
	}
	if cfg.ReferencePrice == 0 {
		return nil, fmt.Errorf("guard: reference price must be positive")
	}
	if cfg.MaxDeviationBps > BpsDenominator {
		return nil, fmt.Errorf("guard: max deviation %d bps exceeds %d", cfg.MaxDeviationBps, BpsDenominator)
	}
	if cfg.SlippageBps >= BpsDenominator {
		return nil, fmt.Errorf("guard: slippage %d bps must be below %d", cfg.SlippageBps, BpsDenominator)
	}
	return &Guard{cfg: cfg}, nil
}

// Validate checks a quote against the staleness and deviation bounds.
// On success it returns a BoundedPrice carrying the minimum-acceptable-output
// multiplier for the swap executor.
func (g *Guard) Validate(q oracle.Quote, now time.Time) (BoundedPrice, error) {
	if q.Price == 0 {
		return BoundedPrice{}, &OutOfBandError{
			Price:     q.Price,
			Reference: g.cfg.ReferencePrice,
			LimitBps:  g.cfg.MaxDeviationBps,
		}
	}

	age := now.Sub(q.Timestamp)
	if age < 0 || age > g.cfg.MaxStaleness {
		return BoundedPrice{}, &StaleQuoteError{
			Source:    q.Source,
			Timestamp: q.Timestamp,
			Age:       age,
			Limit:     g.cfg.MaxStaleness,
		}
	}

	if dev := deviationBps(q.Price, g.cfg.ReferencePrice); dev > g.cfg.MaxDeviationBps {
		return BoundedPrice{}, &OutOfBandError{
			Price:        q.Price,
			Reference:    g.cfg.ReferencePrice,
			DeviationBps: dev,
			LimitBps:     g.cfg.MaxDeviationBps,
		}
	}

	return BoundedPrice{Price: q.Price, SlippageBps: g.cfg.SlippageBps}, nil
}

// deviationBps computes |price - reference| * BpsDenominator / reference
// without overflow (prices are PriceScale-scaled and can be large).
func deviationBps(price, reference uint64) uint64 {
	var diff uint64
	if price > reference {
		diff = price - reference
	} else {
		diff = reference - price
	}

	n := new(big.Int).SetUint64(diff)
	n.Mul(n, big.NewInt(BpsDenominator))
	n.Div(n, new(big.Int).SetUint64(reference))
	if !n.IsUint64() {
		// Deviation beyond uint64 range is certainly out of band.
		return ^uint64(0)
	}
	return n.Uint64()
}

// BoundedPrice is a validated price plus the slippage allowance to apply
// when deriving the swap's minimum-output floor.
type BoundedPrice struct {
	Price       uint64 // PriceScale-scaled, validated
	SlippageBps uint64
}

// MinOut computes the minimum acceptable output amount for swapping
// amountIn input units at the validated price:
//
//	amountIn * PriceScale * (BpsDenominator - SlippageBps) / (Price * BpsDenominator)
//
// Integer math, rounded down. A zero result is possible for dust inputs.
func (b BoundedPrice) MinOut(amountIn uint64) uint64 {
	n := new(big.Int).SetUint64(amountIn)
	n.Mul(n, new(big.Int).SetUint64(oracle.PriceScale))
	n.Mul(n, big.NewInt(int64(BpsDenominator-b.SlippageBps)))

	d := new(big.Int).SetUint64(b.Price)
	d.Mul(d, big.NewInt(BpsDenominator))

	n.Div(n, d)
	if !n.IsUint64() {
		return ^uint64(0)
	}
	return n.Uint64()
}
