// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyIdentity is returned when a user identity is empty.
	ErrEmptyIdentity = errors.New("identity cannot be empty")

	// ErrEmptyItemID is returned when a solved item identifier is empty.
	ErrEmptyItemID = errors.New("item ID cannot be empty")

	// ErrInvalidLevel is returned when a profile level is below 1.
	ErrInvalidLevel = errors.New("level must be at least 1")

	// ErrNegativeExperience is returned when total experience is negative.
	ErrNegativeExperience = errors.New("total experience cannot be negative")

	// ErrInvalidDateKey is returned when a date key is not of the form YYYY-MM-DD.
	ErrInvalidDateKey = errors.New("invalid date key")

	// ErrInvalidMood is returned when a mood value is outside the closed set.
	ErrInvalidMood = errors.New("invalid mood")

	// ErrEditWindowClosed is returned when a journal or mood mutation targets a
	// date that has already elapsed. Today and future dates remain editable.
	ErrEditWindowClosed = errors.New("edit window closed for past date")
)

// ValidationError wraps ErrValidation with the field that failed and a reason.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
