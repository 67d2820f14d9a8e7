// Package domain holds the error taxonomy and value types shared by the
// fleet, pricing, coupon and booking aggregates.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Wrap them in a DomainError and test with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrUnavailable      = errors.New("not available")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// DomainError carries one of the sentinel kinds plus a human readable message.
type DomainError struct {
	Err     error
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *DomainError) Unwrap() error { return e.Err }

// NewValidationError reports malformed input. Not retryable.
func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{Err: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports that an entity of the given kind does not exist.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Err: ErrNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewUnavailableError reports that nothing can be allocated for the request.
// This is a normal business outcome.
func NewUnavailableError(message string) *DomainError {
	return &DomainError{Err: ErrUnavailable, Message: message}
}

// NewConflictError reports a lost race against a concurrent writer. Retryable.
func NewConflictError(message string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: message}
}

// NewInvalidStateError reports a status change that the state machine forbids.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{Err: ErrInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewStoreUnavailableError reports that the backing store did not answer in time. Retryable.
func NewStoreUnavailableError(cause error) *DomainError {
	msg := "backing store did not respond in time"
	if cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, cause)
	}
	return &DomainError{Err: ErrStoreUnavailable, Message: msg}
}

// IsRetryable reports whether the caller may retry the operation as is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreUnavailable)
}
