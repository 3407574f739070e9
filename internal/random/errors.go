package random

import (
	"errors"
	"fmt"
	"time"
)

// SeedReusedError reports a seed observed on an earlier attempt.
type SeedReusedError struct {
	SeedHash string
	Account  string
}

// Error implements the error interface.
func (e *SeedReusedError) Error() string {
	return fmt.Sprintf("seed %s already consumed (account=%s)", e.SeedHash, e.Account)
}

// NotYetAdmittedError reports that the jittered admission deadline has not
// passed yet. Soft failure - the caller retries later with a fresh request.
type NotYetAdmittedError struct {
	AdmitAt time.Time
	Now     time.Time
}

// Error implements the error interface.
func (e *NotYetAdmittedError) Error() string {
	return fmt.Sprintf("not yet admitted: admission at %s, now %s",
		e.AdmitAt.UTC().Format(time.RFC3339), e.Now.UTC().Format(time.RFC3339))
}

// IsSeedReused returns true if the error is a seed replay rejection.
// Uses errors.As to handle wrapped errors.
func IsSeedReused(err error) bool {
	var se *SeedReusedError
	return errors.As(err, &se)
}

// IsNotYetAdmitted returns true if the error is a jitter admission rejection.
// Uses errors.As to handle wrapped errors.
func IsNotYetAdmitted(err error) bool {
	var ne *NotYetAdmittedError
	return errors.As(err, &ne)
}

// IsUnavailable returns true if the error is a provider availability failure.
// Uses errors.As to handle wrapped errors.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
