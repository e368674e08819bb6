package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/astropet-api/internal/api/shared"
	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/session"
	"github.com/phrazzld/astropet-api/internal/store"
	"github.com/phrazzld/astropet-api/internal/task"
)

// memoryCache is an in-memory CacheStore for tests.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	payload, ok := c.entries[key]
	if !ok {
		return nil, store.ErrCacheMiss
	}
	return payload, nil
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte) error {
	c.entries[key] = payload
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

type fakeProfileStore struct {
	profiles map[string]*domain.UserProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*domain.UserProfile)}
}

func (f *fakeProfileStore) Get(_ context.Context, identity string) (*domain.UserProfile, error) {
	profile, ok := f.profiles[identity]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	snapshot := *profile
	return &snapshot, nil
}

func (f *fakeProfileStore) Create(_ context.Context, profile *domain.UserProfile) error {
	if _, ok := f.profiles[profile.Identity]; ok {
		return store.ErrProfileExists
	}
	snapshot := *profile
	f.profiles[profile.Identity] = &snapshot
	return nil
}

func (f *fakeProfileStore) PatchProgress(_ context.Context, identity string, solvedItems []string, level, totalXP int) error {
	profile, ok := f.profiles[identity]
	if !ok {
		return store.ErrProfileNotFound
	}
	profile.SolvedItems = append([]string(nil), solvedItems...)
	profile.Level = level
	profile.TotalExperience = totalXP
	return nil
}

func (f *fakeProfileStore) WithTx(_ *sql.Tx) store.ProfileStore { return f }

type inlineQueue struct{}

func (inlineQueue) Enqueue(t task.Task) error { return t.Execute(context.Background()) }

func (inlineQueue) Close() {}

// testIdentity injects an authenticated identity, standing in for the JWT
// middleware.
func testIdentity(identity shared.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(t *testing.T) (*chi.Mux, *fakeProfileStore) {
	t.Helper()

	profiles := newFakeProfileStore()
	sessions, err := session.NewManager(newMemoryCache(), profiles, inlineQueue{}, nil)
	require.NoError(t, err)

	progressHandler := NewProgressHandler(sessions, nil)
	journalHandler := NewJournalHandler(sessions, nil)

	r := chi.NewRouter()
	r.Use(testIdentity(shared.Identity{
		Identity:    "user-123",
		DisplayName: "Ada",
		Email:       "ada@example.com",
	}))
	r.Get("/api/profile", progressHandler.GetProfile)
	r.Get("/api/progression", progressHandler.GetProgression)
	r.Post("/api/signout", progressHandler.SignOut)
	r.Get("/api/playlist", progressHandler.GetPlaylist)
	r.Post("/api/playlist", progressHandler.AddItem)
	r.Delete("/api/playlist/solved", progressHandler.RemoveSolved)
	r.Post("/api/playlist/{itemID}/solved", progressHandler.MarkSolved)
	r.Delete("/api/playlist/{itemID}/solved", progressHandler.UnmarkSolved)
	r.Delete("/api/playlist/{itemID}", progressHandler.RemoveItem)
	r.Get("/api/journal", journalHandler.ListEntries)
	r.Put("/api/journal/{date}/notes", journalHandler.SetNotes)
	r.Get("/api/moods", journalHandler.ListMoods)
	r.Get("/api/moods/statistics", journalHandler.GetMoodStatistics)
	r.Put("/api/moods/{date}", journalHandler.SetMood)
	r.Put("/api/moods/{date}/note", journalHandler.SetMoodNote)

	return r, profiles
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetProfileHydratesFreshSession(t *testing.T) {
	router, profiles := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user-123", resp.Identity)
	assert.Equal(t, "Ada", resp.DisplayName)
	assert.Equal(t, 1, resp.Level)
	assert.Zero(t, resp.SolvedCount)

	_, ok := profiles.profiles["user-123"]
	assert.True(t, ok, "first request creates the remote profile")
}

func TestMarkSolvedAdvancesProgression(t *testing.T) {
	router, profiles := newTestRouter(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		rec := doJSON(t, router, http.MethodPost, "/api/playlist/"+id+"/solved", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/playlist/e/solved", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var prog ProgressionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prog))
	assert.Equal(t, 2, prog.Level, "fifth solved item advances to level 2")
	assert.Zero(t, prog.XP)

	remote := profiles.profiles["user-123"]
	assert.Len(t, remote.SolvedItems, 5, "pushes reached the remote store")
}

func TestPlaylistLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/playlist", AddItemRequest{
		ID:    "two-sum",
		Title: "Two Sum",
		URL:   "https://example.com/two-sum",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/playlist/two-sum/solved", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/playlist", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var playlist PlaylistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &playlist))
	require.Len(t, playlist.Items, 1)
	assert.True(t, playlist.Items[0].Solved)
	assert.Equal(t, "Two Sum", playlist.Items[0].Title)
	assert.Equal(t, 1, playlist.SolvedCount)

	rec = doJSON(t, router, http.MethodDelete, "/api/playlist/solved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &playlist))
	assert.Empty(t, playlist.Items)
}

func TestAddItemValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/playlist", AddItemRequest{Title: "No ID"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/playlist", AddItemRequest{ID: "x", URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnmarkSolved(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/playlist/two-sum/solved", nil)
	rec := doJSON(t, router, http.MethodDelete, "/api/playlist/two-sum/solved", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var prog ProgressionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prog))
	assert.Equal(t, 1, prog.Level)
	assert.Zero(t, prog.XP)
}

func TestRemoveItem(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/playlist", AddItemRequest{ID: "two-sum"})
	rec := doJSON(t, router, http.MethodDelete, "/api/playlist/two-sum", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSignOut(t *testing.T) {
	router, profiles := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/playlist/two-sum/solved", nil)
	rec := doJSON(t, router, http.MethodPost, "/api/signout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// A request after sign-out hydrates a fresh session from the remote copy.
	rec = doJSON(t, router, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.SolvedCount)
	assert.Len(t, profiles.profiles["user-123"].SolvedItems, 1)
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	profiles := newFakeProfileStore()
	sessions, err := session.NewManager(newMemoryCache(), profiles, inlineQueue{}, nil)
	require.NoError(t, err)

	handler := NewProgressHandler(sessions, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()
	handler.GetProfile(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
