// Package apperr defines the error taxonomy shared by all stores and
// handlers. Callers that need to react to a class of failure (forbidden vs
// not found vs validation) match with errors.Is/errors.As rather than
// string inspection.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the caller was identified but the
	// requested action is not allowed. Distinct from ErrAuthRequired.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAuthRequired indicates no caller identity could be resolved.
	ErrAuthRequired = errors.New("authentication required")

	// ErrConflict indicates a uniqueness violation, e.g. a duplicate ISBN
	// or a duplicate email at registration.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries field-scoped validation failures. The write
// boundary collects all failing fields before returning so clients see
// every problem at once.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// NewValidation creates a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a failing field, allocating the map on first use.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// OrNil returns nil when no field failed, so callers can build up errors
// unconditionally and return the result.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// NotFoundf wraps ErrNotFound with context about the missing entity.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflictf wraps ErrConflict with context about the colliding value.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}
