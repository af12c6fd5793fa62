// Package apperr defines the error kinds surfaced by the core services.
// Callers match with errors.Is; messages carry the exact precondition that
// failed so the wizard UI can show it as-is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized: the actor's roles cannot act at the current level.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition: the (status, role) combination has no rule.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInvalidState: the operation is not permitted in the current status.
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	// ErrConflict: the record changed underneath a decision.
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable: transient persistence failure, retryable by the caller.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Wrapf attaches a kind to a formatted message.
func Wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
