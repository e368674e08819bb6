// Package tracker owns the authoritative in-memory solved-item set for the
// active session. Every mutation persists the complete playlist to the local
// cache before returning, then reports the new solved set to subscribers.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/events"
	"github.com/phrazzld/astropet-api/internal/store"
)

// cacheKeyPrefix namespaces the playlist partition of the local cache.
const cacheKeyPrefix = "playlist:"

// Tracker mirrors the session's playlist (solved subset included) to the
// local cache and emits the solved set on every change. It is the only writer
// to its cache partition.
type Tracker struct {
	identity string
	cache    store.CacheStore
	emitter  events.EventEmitter
	logger   *slog.Logger

	mu    sync.Mutex
	items []domain.PlaylistItem
}

// New creates a Tracker for the given identity. If logger is nil, a default
// logger will be used.
func New(identity string, cache store.CacheStore, emitter events.EventEmitter, logger *slog.Logger) (*Tracker, error) {
	if identity == "" {
		return nil, domain.ErrEmptyIdentity
	}
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		identity: identity,
		cache:    cache,
		emitter:  emitter,
		logger:   logger.With(slog.String("component", "solved_item_tracker")),
	}, nil
}

// Load reads the cached playlist at session start. A missing or malformed
// cache entry yields an empty playlist; Load never fails the session over
// cache state.
func (t *Tracker) Load(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	payload, err := t.cache.Get(ctx, t.cacheKey())
	if err != nil {
		if !errors.Is(err, store.ErrCacheMiss) {
			t.logger.Warn("failed to read playlist cache, starting empty",
				slog.String("error", err.Error()))
		}
		t.items = nil
		return
	}

	var items []domain.PlaylistItem
	if err := json.Unmarshal(payload, &items); err != nil {
		t.logger.Warn("playlist cache is malformed, starting empty",
			slog.String("error", err.Error()))
		t.items = nil
		return
	}

	t.items = items
}

// Seed replaces the solved subset with the remote profile's solved-item set.
// Remote is authoritative at hydration: cached items absent from the remote
// set are unmarked, and remote identifiers unknown to the playlist gain bare
// entries. Seed persists but does not emit, since subscribers obtain the
// hydrated state directly from the coordinator.
func (t *Tracker) Seed(ctx context.Context, solvedIDs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	solved := make(map[string]bool, len(solvedIDs))
	for _, id := range solvedIDs {
		solved[id] = true
	}

	for i := range t.items {
		t.items[i].Solved = solved[t.items[i].ID]
		delete(solved, t.items[i].ID)
	}
	for _, id := range solvedIDs {
		if solved[id] {
			t.items = append(t.items, domain.PlaylistItem{ID: id, Solved: true})
		}
	}

	return t.persistLocked(ctx)
}

// AddToPlaylist inserts an unsolved playlist entry. Adding an identifier that
// is already present is a no-op. The solved set is unchanged, so no event is
// emitted.
func (t *Tracker) AddToPlaylist(ctx context.Context, item domain.PlaylistItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexOfLocked(item.ID) >= 0 {
		return nil
	}

	item.Solved = false
	t.items = append(t.items, item)
	return t.persistLocked(ctx)
}

// Add inserts the item's identifier into the solved set, creating the
// playlist entry when absent. Adding an already-solved identifier is a no-op.
// The updated playlist is persisted before the new set is emitted.
func (t *Tracker) Add(ctx context.Context, item domain.PlaylistItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	if i := t.indexOfLocked(item.ID); i >= 0 {
		if t.items[i].Solved {
			t.mu.Unlock()
			return nil
		}
		t.items[i].Solved = true
	} else {
		item.Solved = true
		t.items = append(t.items, item)
	}
	ids := t.solvedIDsLocked()
	err := t.persistLocked(ctx)
	t.mu.Unlock()

	if err != nil {
		return err
	}
	t.emit(ctx, ids)
	return nil
}

// Remove deletes the identifier from the solved set if present; the playlist
// entry itself is kept. Removing an absent identifier is a no-op.
func (t *Tracker) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrEmptyItemID
	}

	t.mu.Lock()
	i := t.indexOfLocked(id)
	if i < 0 || !t.items[i].Solved {
		t.mu.Unlock()
		return nil
	}
	t.items[i].Solved = false
	ids := t.solvedIDsLocked()
	err := t.persistLocked(ctx)
	t.mu.Unlock()

	if err != nil {
		return err
	}
	t.emit(ctx, ids)
	return nil
}

// RemoveFromPlaylist drops the entry entirely. If the entry was solved, the
// solved set shrinks and the change is emitted.
func (t *Tracker) RemoveFromPlaylist(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrEmptyItemID
	}

	t.mu.Lock()
	i := t.indexOfLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return nil
	}
	wasSolved := t.items[i].Solved
	t.items = append(t.items[:i], t.items[i+1:]...)
	ids := t.solvedIDsLocked()
	err := t.persistLocked(ctx)
	t.mu.Unlock()

	if err != nil {
		return err
	}
	if wasSolved {
		t.emit(ctx, ids)
	}
	return nil
}

// RemoveSolved prunes every solved entry from the playlist. The pruned
// identifiers leave the solved set as well, so the shrunken set is emitted.
func (t *Tracker) RemoveSolved(ctx context.Context) error {
	t.mu.Lock()

	kept := t.items[:0]
	removed := 0
	for _, item := range t.items {
		if item.Solved {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	t.items = kept

	if removed == 0 {
		t.mu.Unlock()
		return nil
	}
	ids := t.solvedIDsLocked()
	err := t.persistLocked(ctx)
	t.mu.Unlock()

	if err != nil {
		return err
	}
	t.emit(ctx, ids)
	return nil
}

// SolvedIDs returns the identifiers of the solved subset.
func (t *Tracker) SolvedIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.solvedIDsLocked()
}

// Items returns a copy of the full playlist, display metadata included.
func (t *Tracker) Items() []domain.PlaylistItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := make([]domain.PlaylistItem, len(t.items))
	copy(items, t.items)
	return items
}

func (t *Tracker) cacheKey() string {
	return cacheKeyPrefix + t.identity
}

func (t *Tracker) indexOfLocked(id string) int {
	for i := range t.items {
		if t.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) solvedIDsLocked() []string {
	ids := make([]string, 0, len(t.items))
	for _, item := range t.items {
		if item.Solved {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// emit reports the solved set to subscribers. Must be called without the
// mutex held; handlers are free to call back into the tracker.
func (t *Tracker) emit(ctx context.Context, ids []string) {
	event := events.NewSolvedSetChangedEvent(t.identity, ids)
	if err := t.emitter.EmitEvent(ctx, event); err != nil {
		// Subscriber failures are theirs to surface; the local mutation stands.
		t.logger.Warn("subscriber failed while handling solved set change",
			slog.String("error", err.Error()))
	}
}

// persistLocked writes the complete playlist to the local cache. The caller
// holds the mutex and remains responsible for releasing it.
func (t *Tracker) persistLocked(ctx context.Context) error {
	items := t.items
	if items == nil {
		items = []domain.PlaylistItem{}
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode playlist: %w", err)
	}
	if err := t.cache.Set(ctx, t.cacheKey(), payload); err != nil {
		return fmt.Errorf("failed to persist playlist: %w", err)
	}
	return nil
}
