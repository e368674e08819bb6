package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/astropet-api/internal/api/shared"
	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/session"
	"github.com/phrazzld/astropet-api/internal/syncer"
)

// ProgressHandler serves the profile, progression, and playlist surface. It
// pulls the caller's hydrated session from the session manager on every
// request.
type ProgressHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewProgressHandler creates a ProgressHandler with the given dependencies.
func NewProgressHandler(sessions *session.Manager, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "progress_handler")),
	}
}

// session resolves the caller's live session, writing an error response on
// failure.
func (h *ProgressHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
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

// GetProfile handles GET /api/profile.
func (h *ProgressHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	profile := sess.Coordinator.Profile()
	if profile == nil {
		HandleAPIError(w, r, nil, "Profile not hydrated")
		return
	}
	prog := sess.Coordinator.Progression()

	shared.RespondWithJSON(w, r, http.StatusOK, ProfileResponse{
		Identity:        profile.Identity,
		DisplayName:     profile.DisplayName,
		Email:           profile.Email,
		Level:           prog.Level,
		TotalExperience: profile.TotalExperience,
		XP:              prog.XP,
		SolvedCount:     len(sess.Tracker.SolvedIDs()),
		UpdatedAt:       profile.UpdatedAt,
	})
}

// GetProgression handles GET /api/progression.
func (h *ProgressHandler) GetProgression(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	prog := sess.Coordinator.Progression()
	shared.RespondWithJSON(w, r, http.StatusOK, ProgressionResponse{
		Level: prog.Level,
		XP:    prog.XP,
	})
}

// GetPlaylist handles GET /api/playlist.
func (h *ProgressHandler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	items := sess.Tracker.Items()
	shared.RespondWithJSON(w, r, http.StatusOK, PlaylistResponse{
		Items:       items,
		SolvedCount: len(sess.Tracker.SolvedIDs()),
	})
}

// AddItem handles POST /api/playlist: adds an unsolved entry to the playlist.
func (h *ProgressHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item := domain.PlaylistItem{ID: req.ID, Title: req.Title, URL: req.URL}
	if err := sess.Tracker.AddToPlaylist(r.Context(), item); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, PlaylistResponse{
		Items:       sess.Tracker.Items(),
		SolvedCount: len(sess.Tracker.SolvedIDs()),
	})
}

// MarkSolved handles POST /api/playlist/{itemID}/solved.
func (h *ProgressHandler) MarkSolved(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	itemID, err := getPathItemID(r, "itemID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := sess.Tracker.Add(r.Context(), domain.PlaylistItem{ID: itemID}); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	prog := sess.Coordinator.Progression()
	shared.RespondWithJSON(w, r, http.StatusOK, ProgressionResponse{
		Level: prog.Level,
		XP:    prog.XP,
	})
}

// UnmarkSolved handles DELETE /api/playlist/{itemID}/solved.
func (h *ProgressHandler) UnmarkSolved(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	itemID, err := getPathItemID(r, "itemID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := sess.Tracker.Remove(r.Context(), itemID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	prog := sess.Coordinator.Progression()
	shared.RespondWithJSON(w, r, http.StatusOK, ProgressionResponse{
		Level: prog.Level,
		XP:    prog.XP,
	})
}

// RemoveItem handles DELETE /api/playlist/{itemID}.
func (h *ProgressHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	itemID, err := getPathItemID(r, "itemID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := sess.Tracker.RemoveFromPlaylist(r.Context(), itemID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveSolved handles DELETE /api/playlist/solved: prunes solved entries.
func (h *ProgressHandler) RemoveSolved(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.Tracker.RemoveSolved(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PlaylistResponse{
		Items:       sess.Tracker.Items(),
		SolvedCount: len(sess.Tracker.SolvedIDs()),
	})
}

// SignOut handles POST /api/signout: terminates the caller's session.
func (h *ProgressHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	h.sessions.SignOut(identity.Identity)
	w.WriteHeader(http.StatusNoContent)
}
