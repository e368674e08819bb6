package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/astropet-api/internal/api/shared"
	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/session"
	"github.com/phrazzld/astropet-api/internal/syncer"
)

// JournalHandler serves the journal and mood ledger surface.
type JournalHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewJournalHandler creates a JournalHandler with the given dependencies.
func NewJournalHandler(sessions *session.Manager, logger *slog.Logger) *JournalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "journal_handler")),
	}
}

func (h *JournalHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return nil, false
	}

	sess, err := h.sessions.Get(r.Context(), syncer.Identity{
		Identity:    identity.Identity,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open session")
		return nil, false
	}
	return sess, true
}

// ListEntries handles GET /api/journal.
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, JournalResponse{
		Entries: sess.Journal.Entries(),
	})
}

// SetNotes handles PUT /api/journal/{date}/notes.
func (h *JournalHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	date, err := getPathDate(r, "date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SetNotesRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := sess.Journal.SetNotes(r.Context(), date, req.Notes); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMoods handles GET /api/moods.
func (h *JournalHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MoodLogResponse{
		Entries: sess.Journal.Moods(),
	})
}

// SetMood handles PUT /api/moods/{date}. An optional note is attached after
// the mood is recorded.
func (h *JournalHandler) SetMood(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	date, err := getPathDate(r, "date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SetMoodRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := sess.Journal.SetMood(r.Context(), date, domain.Mood(req.Mood)); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if req.Note != "" {
		if err := sess.Journal.SetMoodNote(r.Context(), date, req.Note); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetMoodNote handles PUT /api/moods/{date}/note.
func (h *JournalHandler) SetMoodNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	date, err := getPathDate(r, "date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SetMoodNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := sess.Journal.SetMoodNote(r.Context(), date, req.Note); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMoodStatistics handles GET /api/moods/statistics.
func (h *JournalHandler) GetMoodStatistics(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sess.Journal.MoodStatistics())
}
