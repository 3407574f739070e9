package guard

import (
	"errors"
	"fmt"
	"time"
)

// StaleQuoteError reports a quote older than the staleness bound, or one
// stamped in the future relative to the supplied now.
type StaleQuoteError struct {
	Source    string
	Timestamp time.Time
	Age       time.Duration
	Limit     time.Duration
}

// Error implements the error interface.
func (e *StaleQuoteError) Error() string {
	if e.Age < 0 {
		return fmt.Sprintf("stale quote from %s: timestamp %s is in the future", e.Source, e.Timestamp.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("stale quote from %s: age %s exceeds limit %s", e.Source, e.Age, e.Limit)
}

// OutOfBandError reports a quote deviating from the reference price beyond
// the configured band.
type OutOfBandError struct {
	Price        uint64
	Reference    uint64
	DeviationBps uint64
	LimitBps     uint64
}

// Error implements the error interface.
func (e *OutOfBandError) Error() string {
	return fmt.Sprintf("quote out of band: price %d deviates %d bps from reference %d (limit %d bps)",
		e.Price, e.DeviationBps, e.Reference, e.LimitBps)
}

// IsStaleQuote returns true if the error is a staleness rejection.
// Uses errors.As to handle wrapped errors.
func IsStaleQuote(err error) bool {
	var se *StaleQuoteError
	return errors.As(err, &se)
}

// IsOutOfBand returns true if the error is a deviation rejection.
// Uses errors.As to handle wrapped errors.
func IsOutOfBand(err error) bool {
	var oe *OutOfBandError
	return errors.As(err, &oe)
}
