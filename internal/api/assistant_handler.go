package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/astropet-api/internal/api/shared"
	"github.com/phrazzld/astropet-api/internal/assistant"
)

// AssistantHandler relays study prompts to the configured language model.
// The relay is optional; when the service runs without one, the endpoint
// reports the assistant as unavailable instead of failing startup.
type AssistantHandler struct {
	relay  assistant.Relay
	logger *slog.Logger
}

// NewAssistantHandler creates an AssistantHandler. A nil relay is allowed and
// makes the endpoint respond with 503.
func NewAssistantHandler(relay assistant.Relay, logger *slog.Logger) *AssistantHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantHandler{
		relay:  relay,
		logger: logger.With(slog.String("component", "assistant_handler")),
	}
}

// Relay handles POST /api/assistant.
func (h *AssistantHandler) Relay(w http.ResponseWriter, r *http.Request) {
	if h.relay == nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	var req AssistantRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	text, err := h.relay.Reply(r.Context(), req.Prompt)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AssistantResponse{Text: text})
}
