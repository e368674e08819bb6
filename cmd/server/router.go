package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/astropet-api/internal/api"
	apiMiddleware "github.com/phrazzld/astropet-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	progressHandler := api.NewProgressHandler(app.sessions, app.logger)
	journalHandler := api.NewJournalHandler(app.sessions, app.logger)
	assistantHandler := api.NewAssistantHandler(app.relay, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// Profile and progression
		r.Get("/profile", progressHandler.GetProfile)
		r.Get("/progression", progressHandler.GetProgression)
		r.Post("/signout", progressHandler.SignOut)

		// Playlist and solved set
		r.Get("/playlist", progressHandler.GetPlaylist)
		r.Post("/playlist", progressHandler.AddItem)
		r.Delete("/playlist/solved", progressHandler.RemoveSolved)
		r.Post("/playlist/{itemID}/solved", progressHandler.MarkSolved)
		r.Delete("/playlist/{itemID}/solved", progressHandler.UnmarkSolved)
		r.Delete("/playlist/{itemID}", progressHandler.RemoveItem)

		// Journal
		r.Get("/journal", journalHandler.ListEntries)
		r.Put("/journal/{date}/notes", journalHandler.SetNotes)

		// Mood ledger
		r.Get("/moods", journalHandler.ListMoods)
		r.Get("/moods/statistics", journalHandler.GetMoodStatistics)
		r.Put("/moods/{date}", journalHandler.SetMood)
		r.Put("/moods/{date}/note", journalHandler.SetMoodNote)

		// Assistant relay
		r.Post("/assistant", assistantHandler.Relay)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
