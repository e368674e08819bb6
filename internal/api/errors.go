package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/astropet-api/internal/api/shared"
	"github.com/phrazzld/astropet-api/internal/assistant"
	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/service/auth"
	"github.com/phrazzld/astropet-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Edit-window policy violations
	case errors.Is(err, domain.ErrEditWindowClosed):
		return http.StatusConflict

	// Conflict errors
	case errors.Is(err, store.ErrProfileExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, store.ErrProfileNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidDateKey),
		errors.Is(err, domain.ErrInvalidMood),
		errors.Is(err, domain.ErrEmptyItemID),
		errors.Is(err, domain.ErrEmptyIdentity),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, assistant.ErrEmptyPrompt):
		return http.StatusBadRequest

	// Upstream assistant failures
	case errors.Is(err, assistant.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assistant.ErrRelayFailed),
		errors.Is(err, assistant.ErrInvalidResponse):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, domain.ErrEditWindowClosed):
		return "Past dates cannot be edited"

	case errors.Is(err, store.ErrProfileExists):
		return "Profile already exists"

	case errors.Is(err, store.ErrProfileNotFound):
		return "Profile not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrInvalidDateKey):
		return "Invalid date, expected YYYY-MM-DD"

	case errors.Is(err, domain.ErrInvalidMood):
		return "Invalid mood, expected positive, neutral or negative"

	case errors.Is(err, domain.ErrEmptyItemID):
		return "Item ID is required"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, assistant.ErrEmptyPrompt):
		return "Prompt is required"

	case errors.Is(err, assistant.ErrContentBlocked):
		return "The assistant declined to answer this prompt"

	case errors.Is(err, assistant.ErrRelayFailed),
		errors.Is(err, assistant.ErrInvalidResponse):
		return "The assistant is unavailable right now"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message and writes
// the response, logging the redacted original error. An explicit userMessage
// overrides the derived safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'AddItemRequest.ID' Error:Field validation for 'ID' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "url":
		return "invalid URL"
	default:
		return "validation failed"
	}
}
