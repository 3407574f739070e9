package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode categorizes ledger errors.
type ErrorCode string

const (
	// CodeInvalidParameters rejects creation with nonsensical values.
	CodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"

	// CodeAlreadyExists rejects creating a second plan for an account.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeNotFound indicates no plan exists for the account.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeNotDue indicates the frequency interval has not elapsed.
	// Soft: retryable once NextEligibleAt has passed.
	CodeNotDue ErrorCode = "NOT_DUE"

	// CodeExhausted indicates the remaining budget cannot cover another
	// period. Permanent for the plan.
	CodeExhausted ErrorCode = "EXHAUSTED"

	// CodeStaleProposal indicates the plan moved past the proposal's base
	// version before commit. The caller re-reads and retries.
	CodeStaleProposal ErrorCode = "STALE_PROPOSAL"
)

// Error is a ledger failure with structured fields for diagnostics.
type Error struct {
	Code    ErrorCode
	Owner   string
	Message string

	// NextEligibleAt is set for CodeNotDue.
	NextEligibleAt time.Time
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s: %s (owner=%s)", e.Code, e.Message, e.Owner)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func is(err error, code ErrorCode) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

// IsInvalidParameters returns true for creation parameter rejections.
func IsInvalidParameters(err error) bool { return is(err, CodeInvalidParameters) }

// IsAlreadyExists returns true for duplicate-plan rejections.
func IsAlreadyExists(err error) bool { return is(err, CodeAlreadyExists) }

// IsNotFound returns true for missing-plan errors.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsNotDue returns true for time-gate rejections.
func IsNotDue(err error) bool { return is(err, CodeNotDue) }

// IsExhausted returns true for budget-gate rejections.
func IsExhausted(err error) bool { return is(err, CodeExhausted) }

// IsStaleProposal returns true for commit concurrency rejections.
func IsStaleProposal(err error) bool { return is(err, CodeStaleProposal) }
