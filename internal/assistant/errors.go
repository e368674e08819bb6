package assistant

import "errors"

// Common errors returned by the assistant package
var (
	// ErrEmptyPrompt is returned when the prompt is empty
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrRelayFailed is returned when the model call fails for any general reason
	ErrRelayFailed = errors.New("failed to get a reply from the language model")

	// ErrInvalidResponse is returned when the model response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the relay configuration is invalid
	ErrInvalidConfig = errors.New("invalid relay configuration")
)
