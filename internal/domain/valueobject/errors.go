package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrValidation              = errors.New("validation failed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrApplicationNotFound     = errors.New("application not found")
	ErrConcurrentModification  = errors.New("application was modified concurrently")
)

// ValidationError reports a rejected input. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidTransitionError reports an action that the current status does not
// allow. It matches ErrInvalidStatusTransition. The application is left
// unchanged and the call must not be retried.
type InvalidTransitionError struct {
	From   ApplicationStatus
	Action string
}

// NewInvalidTransitionError returns an InvalidTransitionError.
func NewInvalidTransitionError(from ApplicationStatus, action string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, Action: action}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from %s", ErrInvalidStatusTransition, e.Action, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}
