// Package random supplies the verifiable-randomness gate that
// de-predictabilizes trigger execution.
//
// A plan's earliest-eligible time is public and deterministic; without a
// randomness gate, third parties could predict the exact moment a swap fires
// and front-run it. The gate folds a request-bound random seed into a bounded
// jitter window and admits the attempt only once the jittered deadline has
// passed. Admission stays a pure check against the supplied now - the attempt
// never sleeps, so execution remains a single atomic unit.
package random

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// Seed is a request-bound random value. Providers return at least 8 bytes.
type Seed []byte

// Provider obtains a random seed tied to a specific request. The seed must
// not be predictable before the request is submitted and must not repeat
// across requests.
//
// The provider's own commit/reveal or BLS protocol is an external concern;
// an implementation typically awaits the upstream response to completion
// before returning.
type Provider interface {
	RequestRandom(ctx context.Context, requestID string) (Seed, error)
}

// UnavailableError reports that the randomness provider could not serve a
// request. The trigger attempt fails soft; nothing is consumed.
type UnavailableError struct {
	RequestID string
	Err       error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("randomness unavailable for request %s: %v", e.RequestID, e.Err)
	}
	return fmt.Sprintf("randomness unavailable for request %s", e.RequestID)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// LocalProvider derives seeds as HMAC-SHA256(secret, requestID).
//
// For deployments without an external VRF coordinator: as long as the
// operator secret stays private, seeds are unpredictable to outside
// observers while remaining request-bound and reproducible for audit.
type LocalProvider struct {
	secret []byte
}

// NewLocalProvider creates a provider keyed by the given operator secret.
func NewLocalProvider(secret []byte) (*LocalProvider, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("local randomness provider requires a non-empty secret")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &LocalProvider{secret: key}, nil
}

// RequestRandom implements Provider.
func (p *LocalProvider) RequestRandom(_ context.Context, requestID string) (Seed, error) {
	if requestID == "" {
		return nil, &UnavailableError{RequestID: requestID, Err: fmt.Errorf("empty request id")}
	}
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(requestID))
	return Seed(mac.Sum(nil)), nil
}
