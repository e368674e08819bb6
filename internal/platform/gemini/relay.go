// Package gemini implements the assistant.Relay interface on top of Google's
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/astropet-api/internal/assistant"
	"github.com/phrazzld/astropet-api/internal/config"
)

// systemPreamble steers the model toward hints over answers. It mirrors the
// study-buddy persona shown in the chat surface.
const systemPreamble = `You are an AI coding study buddy. When a user asks about a ` +
	`coding problem, respond with a helpful hint first. If the user asks for more, ` +
	`provide a step-by-step explanation, and only give the full solution if explicitly ` +
	`requested. Always encourage learning and problem-solving. Format hints as bullet ` +
	`points where possible.`

// Relay implements assistant.Relay using the Gemini API with exponential
// backoff retries for transient failures.
type Relay struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

var _ assistant.Relay = (*Relay)(nil)

// NewRelay creates a Relay from the LLM configuration. It fails when the API
// key or model name is missing; callers that want an optional assistant check
// the configuration before constructing one.
func NewRelay(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Relay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", assistant.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", assistant.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", assistant.ErrInvalidConfig, err)
	}

	return &Relay{
		logger: logger.With(slog.String("component", "gemini_relay")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Reply sends the prompt to the model and returns its text reply. Transient
// failures are retried with exponential backoff plus jitter; safety blocks
// are returned immediately.
func (r *Relay) Reply(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", assistant.ErrEmptyPrompt
	}

	maxRetries := r.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := r.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPreamble, genai.RoleUser),
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		r.logger.Debug("calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		response, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), genConfig)
		if err == nil {
			text := response.Text()
			if text == "" {
				return "", fmt.Errorf("%w: model returned no text", assistant.ErrInvalidResponse)
			}
			return text, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if isBlockedError(err) {
			return "", fmt.Errorf("%w: %v", assistant.ErrContentBlocked, err)
		}

		lastErr = err
		r.logger.Warn("Gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if attempt < maxRetries {
			delay := backoffDelay(baseDelaySeconds, attempt, rng)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return "", fmt.Errorf("%w: %v", assistant.ErrRelayFailed, lastErr)
}

// backoffDelay computes the exponential backoff for the given attempt with up
// to 20% jitter.
func backoffDelay(baseSeconds, attempt int, rng *rand.Rand) time.Duration {
	base := float64(baseSeconds) * math.Pow(2, float64(attempt))
	jitter := base * 0.2 * rng.Float64()
	return time.Duration((base + jitter) * float64(time.Second))
}

// isBlockedError reports whether the API error looks like a safety filter
// rejection rather than a transient failure.
func isBlockedError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 && apiErr.Status == "INVALID_ARGUMENT"
	}
	return false
}
