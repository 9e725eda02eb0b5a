package contracts

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers match them with errors.Is.
var (
	ErrInvalidMoment      = errors.New("invalid moment")
	ErrInvalidLocation    = errors.New("invalid location")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPolarLatitude      = errors.New("house system undefined at polar latitude")
	ErrFatalConfiguration = errors.New("fatal configuration error")
	ErrNotFound           = errors.New("not found")
)

// ValidationError rejects malformed input before any computation.
// Never retried automatically.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

// NewValidationError builds a ValidationError of the given kind.
func NewValidationError(kind error, field, message string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidMoment) match.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateLimit rejects row limits below 1
func ValidateLimit(limit int) error {
	if limit < 1 {
		return NewValidationError(ErrInvalidInput, "limit", fmt.Sprintf("%d must be at least 1", limit))
	}
	return nil
}
