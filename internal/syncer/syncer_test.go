package syncer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/events"
	"github.com/phrazzld/astropet-api/internal/store"
	"github.com/phrazzld/astropet-api/internal/task"
	"github.com/phrazzld/astropet-api/internal/tracker"
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

// fakeProfileStore is an in-memory ProfileStore with fault injection and a
// patch counter.
type fakeProfileStore struct {
	profiles map[string]*domain.UserProfile

	getErr     error
	patchErr   error
	patchCalls int
	createErr  error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*domain.UserProfile)}
}

func (f *fakeProfileStore) Get(_ context.Context, identity string) (*domain.UserProfile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	profile, ok := f.profiles[identity]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	snapshot := *profile
	return &snapshot, nil
}

func (f *fakeProfileStore) Create(_ context.Context, profile *domain.UserProfile) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.profiles[profile.Identity]; ok {
		return store.ErrProfileExists
	}
	snapshot := *profile
	f.profiles[profile.Identity] = &snapshot
	return nil
}

func (f *fakeProfileStore) PatchProgress(_ context.Context, identity string, solvedItems []string, level, totalXP int) error {
	f.patchCalls++
	if f.patchErr != nil {
		return f.patchErr
	}
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

// syncQueue executes tasks inline, making push effects deterministic in tests.
type syncQueue struct {
	enqueued int
	closed   bool
}

func (q *syncQueue) Enqueue(t task.Task) error {
	if q.closed {
		return task.ErrQueueClosed
	}
	q.enqueued++
	return t.Execute(context.Background())
}

func (q *syncQueue) Close() { q.closed = true }

type fixture struct {
	coordinator *Coordinator
	tracker     *tracker.Tracker
	profiles    *fakeProfileStore
	queue       *syncQueue
	cache       *memoryCache
	emitter     *events.InMemoryEventEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cache := newMemoryCache()
	emitter := events.NewInMemoryEventEmitter(nil)

	tr, err := tracker.New("user-123", cache, emitter, nil)
	require.NoError(t, err)

	profiles := newFakeProfileStore()
	queue := &syncQueue{}

	identity := Identity{Identity: "user-123", DisplayName: "Ada", Email: "ada@example.com"}
	coordinator, err := NewCoordinator(identity, profiles, tr, queue, nil)
	require.NoError(t, err)
	emitter.RegisterHandler(coordinator)

	return &fixture{
		coordinator: coordinator,
		tracker:     tr,
		profiles:    profiles,
		queue:       queue,
		cache:       cache,
		emitter:     emitter,
	}
}

func TestStartSessionRemoteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Local cache and remote profile disagree.
	f.tracker.Load(ctx)
	require.NoError(t, f.tracker.Add(ctx, domain.PlaylistItem{ID: "local-only"}))
	f.profiles.profiles["user-123"] = &domain.UserProfile{
		Identity:        "user-123",
		DisplayName:     "Ada",
		Level:           2,
		TotalExperience: 5,
		SolvedItems:     []string{"r1", "r2", "r3", "r4", "r5"},
	}

	require.NoError(t, f.coordinator.StartSession(ctx))

	assert.Equal(t, StateSynced, f.coordinator.State())
	assert.ElementsMatch(t, []string{"r1", "r2", "r3", "r4", "r5"}, f.tracker.SolvedIDs(),
		"remote set replaces the locally cached one")

	profile := f.coordinator.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, 2, profile.Level)
}

func TestStartSessionCreatesMissingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.coordinator.StartSession(ctx))

	created, ok := f.profiles.profiles["user-123"]
	require.True(t, ok, "missing profile must be created during hydration")
	assert.Equal(t, 1, created.Level)
	assert.Zero(t, created.TotalExperience)
	assert.Equal(t, "Ada", created.DisplayName)
	assert.Equal(t, StateSynced, f.coordinator.State())
}

func TestStartSessionKeepsLocalSolvedWhenProfileIsNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tracker.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))

	require.NoError(t, f.coordinator.StartSession(ctx))

	assert.Equal(t, []string{"two-sum"}, f.tracker.SolvedIDs(),
		"a fresh remote profile must not wipe local progress")
}

func TestStartSessionFallsBackWhenRemoteUnreachable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tracker.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))
	f.profiles.getErr = errors.New("connection refused")

	require.NoError(t, f.coordinator.StartSession(ctx))

	assert.Equal(t, StateSynced, f.coordinator.State(), "remote outages never block the session")

	profile := f.coordinator.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, []string{"two-sum"}, profile.SolvedItems)
	assert.Equal(t, 1, profile.Level)
}

func TestEveryCountChangePushes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.coordinator.StartSession(ctx))

	items := []string{"a", "b", "c", "d", "e"}
	for _, id := range items {
		require.NoError(t, f.tracker.Add(ctx, domain.PlaylistItem{ID: id}))
	}

	assert.Equal(t, 5, f.queue.enqueued, "each count change triggers one push")

	profile := f.coordinator.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, 2, profile.Level, "fifth item advances to level 2")
	assert.Equal(t, 5, profile.TotalExperience)

	remote := f.profiles.profiles["user-123"]
	assert.ElementsMatch(t, items, remote.SolvedItems)
}

func TestUnchangedCountDoesNotPush(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.coordinator.StartSession(ctx))
	require.NoError(t, f.tracker.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))
	pushesSoFar := f.queue.enqueued

	// An event whose cardinality matches the working profile is a no-op.
	err := f.coordinator.HandleEvent(ctx, events.NewSolvedSetChangedEvent("user-123", []string{"two-sum"}))
	require.NoError(t, err)
	assert.Equal(t, pushesSoFar, f.queue.enqueued)
}

func TestFailedPushKeepsWorkingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.coordinator.StartSession(ctx))
	f.profiles.patchErr = errors.New("write rejected")

	require.NoError(t, f.tracker.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))

	profile := f.coordinator.Profile()
	require.NotNil(t, profile)
	assert.Zero(t, profile.SolvedCount(), "failed push must not advance the working profile")

	// Local state is untouched by the failure.
	assert.Equal(t, []string{"two-sum"}, f.tracker.SolvedIDs())
}

func TestEventsForOtherIdentitiesAreIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.coordinator.StartSession(ctx))

	err := f.coordinator.HandleEvent(ctx, events.NewSolvedSetChangedEvent("someone-else", []string{"x"}))
	require.NoError(t, err)
	assert.Zero(t, f.queue.enqueued)
}

func TestTerminateStopsPushes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.coordinator.StartSession(ctx))
	f.coordinator.Terminate()

	require.NoError(t, f.tracker.Add(ctx, domain.PlaylistItem{ID: "two-sum"}))

	assert.Zero(t, f.queue.enqueued, "terminated sessions enqueue nothing")
	assert.Equal(t, StateTerminated, f.coordinator.State())

	err := f.coordinator.StartSession(ctx)
	assert.ErrorIs(t, err, ErrSessionTerminated)
}

func TestHandleEventBeforeHydrationIsIgnored(t *testing.T) {
	f := newFixture(t)

	err := f.coordinator.HandleEvent(context.Background(),
		events.NewSolvedSetChangedEvent("user-123", []string{"x"}))
	require.NoError(t, err)
	assert.Zero(t, f.queue.enqueued)
}
