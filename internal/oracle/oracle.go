// Package oracle defines the price-quote contract consumed by the engine.
//
// The oracle's own aggregation and consensus are external concerns; this
// package only models the narrow surface the core calls through: a quote
// with a price, a timestamp and a source identifier. Freshness and range
// are NOT trusted here - the price guard validates every quote before use.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PriceScale is the fixed-point scale for quoted prices: a quote of
// 2000 * PriceScale means 2000 input units buy one output unit.
// Eight decimals, matching the feed the engine was originally wired to.
const PriceScale uint64 = 100_000_000

// Quote is a single price observation for an asset pair.
//
// Price is the amount of input (stable) asset per one unit of output asset,
// scaled by PriceScale. Timestamp is the oracle-reported observation time,
// not the local receive time.
type Quote struct {
	Price     uint64
	Timestamp time.Time
	Source    string
}

// Source resolves the latest quote for a pair such as "WETH/USDT".
type Source interface {
	LatestQuote(ctx context.Context, pair string) (Quote, error)
}

// UnavailableError reports that no quote could be obtained for a pair.
type UnavailableError struct {
	Pair string
	Err  error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no quote available for %s: %v", e.Pair, e.Err)
	}
	return fmt.Sprintf("no quote available for %s", e.Pair)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable returns true if the error is a quote availability failure.
// Uses errors.As to handle wrapped errors.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// StaticSource serves a fixed quote, restamped to the supplied clock on
// every call. Used by the paper-trading CLI wiring and by tests.
type StaticSource struct {
	Price  uint64
	Origin string
	Now    func() time.Time
}

// LatestQuote implements Source.
func (s *StaticSource) LatestQuote(_ context.Context, pair string) (Quote, error) {
	if s.Price == 0 {
		return Quote{}, &UnavailableError{Pair: pair}
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	source := s.Origin
	if source == "" {
		source = "static"
	}
	return Quote{Price: s.Price, Timestamp: now, Source: source}, nil
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, pair string) (Quote, error)

// LatestQuote implements Source.
func (f SourceFunc) LatestQuote(ctx context.Context, pair string) (Quote, error) {
	return f(ctx, pair)
}
