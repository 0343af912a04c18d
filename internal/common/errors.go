// Package common defines the error taxonomy shared by the persistence,
// service and transport layers. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors.
	ErrMissingAuthHeader = errors.New("authorization header missing")
	ErrInvalidAuthHeader = errors.New("invalid authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrKeysUnavailable   = errors.New("signing keys unavailable")
)

// ValidationError reports a malformed or missing field in a request body.
// It is always caused by the client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError returns a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError is returned when a storage operation failed and was rolled
// back. Error() yields only the generic public message; the underlying cause
// is reachable through Unwrap for logging and must never be sent to clients.
type PersistenceError struct {
	Op     string
	ItemID int64
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s item", e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps cause for operation op. itemID is 0 when the
// operation does not target an existing row.
func NewPersistenceError(op string, itemID int64, cause error) *PersistenceError {
	return &PersistenceError{Op: op, ItemID: itemID, Err: cause}
}
