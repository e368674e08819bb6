package tracker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/events"
	"github.com/phrazzld/astropet-api/internal/store"
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

// recordingHandler captures every solved set it is handed.
type recordingHandler struct {
	sets [][]string
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.SolvedSetChangedEvent) error {
	h.sets = append(h.sets, event.SolvedItems)
	return nil
}

func newTestTracker(t *testing.T) (*Tracker, *memoryCache, *recordingHandler) {
	t.Helper()

	cache := newMemoryCache()
	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(handler)

	tr, err := New("user-123", cache, emitter, nil)
	require.NoError(t, err)
	return tr, cache, handler
}

func cachedItems(t *testing.T, cache *memoryCache) []domain.PlaylistItem {
	t.Helper()

	payload, ok := cache.entries["playlist:user-123"]
	require.True(t, ok, "expected playlist cache entry")

	var items []domain.PlaylistItem
	require.NoError(t, json.Unmarshal(payload, &items))
	return items
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	emitter := events.NewInMemoryEventEmitter(nil)

	_, err := New("", cache, emitter, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyIdentity)

	_, err = New("user-123", nil, emitter, nil)
	assert.Error(t, err)

	_, err = New("user-123", cache, nil, nil)
	assert.Error(t, err)
}

func TestLoadEmptyOnMiss(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	tr.Load(context.Background())

	assert.Empty(t, tr.Items())
	assert.Empty(t, tr.SolvedIDs())
}

func TestLoadEmptyOnCorruptPayload(t *testing.T) {
	tr, cache, _ := newTestTracker(t)
	cache.entries["playlist:user-123"] = []byte("{not json")

	tr.Load(context.Background())

	assert.Empty(t, tr.Items())
}

func TestLoadRestoresPlaylist(t *testing.T) {
	tr, cache, _ := newTestTracker(t)
	payload, err := json.Marshal([]domain.PlaylistItem{
		{ID: "two-sum", Title: "Two Sum", Solved: true},
		{ID: "lru-cache", Title: "LRU Cache", Solved: false},
	})
	require.NoError(t, err)
	cache.entries["playlist:user-123"] = payload

	tr.Load(context.Background())

	assert.Len(t, tr.Items(), 2)
	assert.Equal(t, []string{"two-sum"}, tr.SolvedIDs())
}

func TestAddPersistsBeforeEmitting(t *testing.T) {
	tr, cache, handler := newTestTracker(t)
	ctx := context.Background()

	err := tr.Add(ctx, domain.PlaylistItem{ID: "two-sum", Title: "Two Sum"})
	require.NoError(t, err)

	items := cachedItems(t, cache)
	require.Len(t, items, 1)
	assert.True(t, items[0].Solved)

	require.Len(t, handler.sets, 1)
	assert.Equal(t, []string{"two-sum"}, handler.sets[0])
}

func TestAddIsIdempotent(t *testing.T) {
	tr, _, handler := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "two-sum", Title: "Two Sum"}))
	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "two-sum", Title: "Two Sum"}))

	assert.Equal(t, []string{"two-sum"}, tr.SolvedIDs())
	assert.Len(t, handler.sets, 1, "duplicate add must not emit")
}

func TestAddMarksExistingPlaylistEntry(t *testing.T) {
	tr, _, handler := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.AddToPlaylist(ctx, domain.PlaylistItem{ID: "two-sum", Title: "Two Sum", URL: "https://example.com/two-sum"}))
	assert.Empty(t, handler.sets, "playlist-only add must not emit")

	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))

	items := tr.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Two Sum", items[0].Title, "metadata from original entry survives")
	assert.True(t, items[0].Solved)
	assert.Len(t, handler.sets, 1)
}

func TestRemoveKeepsPlaylistEntry(t *testing.T) {
	tr, _, handler := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "two-sum", Title: "Two Sum"}))
	require.NoError(t, tr.Remove(ctx, "two-sum"))

	assert.Empty(t, tr.SolvedIDs())
	assert.Len(t, tr.Items(), 1)
	require.Len(t, handler.sets, 2)
	assert.Empty(t, handler.sets[1])
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	tr, _, handler := newTestTracker(t)

	require.NoError(t, tr.Remove(context.Background(), "never-added"))
	assert.Empty(t, handler.sets)
}

func TestRemoveFromPlaylist(t *testing.T) {
	tr, _, handler := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))
	require.NoError(t, tr.AddToPlaylist(ctx, domain.PlaylistItem{ID: "lru-cache"}))

	// Dropping an unsolved entry leaves the solved set alone.
	require.NoError(t, tr.RemoveFromPlaylist(ctx, "lru-cache"))
	assert.Len(t, handler.sets, 1)

	// Dropping a solved entry shrinks the solved set and emits.
	require.NoError(t, tr.RemoveFromPlaylist(ctx, "two-sum"))
	assert.Empty(t, tr.Items())
	require.Len(t, handler.sets, 2)
	assert.Empty(t, handler.sets[1])
}

func TestRemoveSolvedPrunesAndEmits(t *testing.T) {
	tr, _, handler := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))
	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "three-sum"}))
	require.NoError(t, tr.AddToPlaylist(ctx, domain.PlaylistItem{ID: "lru-cache"}))

	require.NoError(t, tr.RemoveSolved(ctx))

	items := tr.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "lru-cache", items[0].ID)

	require.NotEmpty(t, handler.sets)
	assert.Empty(t, handler.sets[len(handler.sets)-1])
}

func TestRemoveSolvedWithNothingSolvedIsQuiet(t *testing.T) {
	tr, _, handler := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.AddToPlaylist(ctx, domain.PlaylistItem{ID: "lru-cache"}))
	require.NoError(t, tr.RemoveSolved(ctx))

	assert.Len(t, tr.Items(), 1)
	assert.Empty(t, handler.sets)
}

func TestSeedReplacesSolvedSubset(t *testing.T) {
	tr, cache, handler := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.AddToPlaylist(ctx, domain.PlaylistItem{ID: "two-sum", Title: "Two Sum"}))
	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "stale-local"}))
	handler.sets = nil

	require.NoError(t, tr.Seed(ctx, []string{"two-sum", "remote-only"}))

	assert.ElementsMatch(t, []string{"two-sum", "remote-only"}, tr.SolvedIDs())

	items := tr.Items()
	byID := make(map[string]domain.PlaylistItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	assert.False(t, byID["stale-local"].Solved, "locally solved item absent remotely is unmarked")
	assert.Equal(t, "Two Sum", byID["two-sum"].Title, "metadata survives seeding")

	assert.Empty(t, handler.sets, "seeding must not emit")
	assert.NotEmpty(t, cachedItems(t, cache), "seeded state is persisted")
}

func TestMutationsInterleaveOnOneTracker(t *testing.T) {
	tr, _, handler := newTestTracker(t)
	ctx := context.Background()

	// Hydration followed by the full mutation surface, in one session. Every
	// call must leave the tracker usable for the next one.
	require.NoError(t, tr.Seed(ctx, []string{"two-sum"}))
	require.NoError(t, tr.AddToPlaylist(ctx, domain.PlaylistItem{ID: "valid-anagram"}))
	require.NoError(t, tr.AddToPlaylist(ctx, domain.PlaylistItem{ID: "valid-anagram"}))
	require.NoError(t, tr.Add(ctx, domain.PlaylistItem{ID: "valid-anagram"}))
	require.NoError(t, tr.Remove(ctx, "two-sum"))
	require.NoError(t, tr.Seed(ctx, []string{"two-sum", "valid-anagram"}))
	require.NoError(t, tr.RemoveSolved(ctx))

	assert.Empty(t, tr.SolvedIDs())
	assert.Empty(t, tr.Items())
	assert.NotEmpty(t, handler.sets, "solved-set mutations were reported")
}
