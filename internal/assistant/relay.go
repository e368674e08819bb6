// Package assistant defines the boundary between the application core and
// the external language model used as a study companion. The relay accepts a
// free-text prompt and returns free text; it takes no part in the
// synchronization contract.
package assistant

import "context"

// Relay sends a user prompt to the configured language model and returns its
// reply.
type Relay interface {
	// Reply answers the given free-text prompt.
	// Returns an error if the prompt is empty or the model call fails
	// (see errors.go for specific kinds).
	Reply(ctx context.Context, prompt string) (string, error)
}
