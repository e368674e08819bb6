// Package session assembles and owns the per-identity working state: the
// solved-item tracker, the journal, and the sync coordinator, wired together
// through an event emitter. Sessions are created lazily on first use and live
// until sign-out or shutdown.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/events"
	"github.com/phrazzld/astropet-api/internal/journal"
	"github.com/phrazzld/astropet-api/internal/store"
	"github.com/phrazzld/astropet-api/internal/syncer"
	"github.com/phrazzld/astropet-api/internal/task"
	"github.com/phrazzld/astropet-api/internal/tracker"
)

// Session holds one identity's hydrated working state.
type Session struct {
	Identity    syncer.Identity
	Tracker     *tracker.Tracker
	Journal     *journal.Store
	Coordinator *syncer.Coordinator
}

// Manager creates and caches sessions keyed by identity. A session hydrates
// exactly once; later requests for the same identity reuse the live state.
type Manager struct {
	cache    store.CacheStore
	profiles store.ProfileStore
	queue    task.TaskQueueWriter
	logger   *slog.Logger

	// hydrations coalesces concurrent first requests for one identity so the
	// session graph is built exactly once. mu guards only the map; it is
	// never held across hydration, which reads the remote profile store.
	hydrations singleflight.Group
	mu         sync.Mutex
	sessions   map[string]*Session
}

// NewManager creates a session Manager. If logger is nil, a default logger
// will be used.
func NewManager(
	cache store.CacheStore,
	profiles store.ProfileStore,
	queue task.TaskQueueWriter,
	logger *slog.Logger,
) (*Manager, error) {
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}
	if profiles == nil {
		return nil, domain.NewValidationError("profiles", "cannot be nil", domain.ErrValidation)
	}
	if queue == nil {
		return nil, domain.NewValidationError("queue", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cache:    cache,
		profiles: profiles,
		queue:    queue,
		logger:   logger.With(slog.String("component", "session_manager")),
		sessions: make(map[string]*Session),
	}, nil
}

// Get returns the live session for the identity, hydrating one on first use.
// Hydration for one identity never blocks requests for another; concurrent
// first requests for the same identity share a single hydration.
func (m *Manager) Get(ctx context.Context, identity syncer.Identity) (*Session, error) {
	if identity.Identity == "" {
		return nil, domain.ErrEmptyIdentity
	}

	if session, ok := m.lookup(identity.Identity); ok {
		return session, nil
	}

	result, err, _ := m.hydrations.Do(identity.Identity, func() (interface{}, error) {
		// A hydration that finished between the lookup and here wins.
		if session, ok := m.lookup(identity.Identity); ok {
			return session, nil
		}

		session, err := m.hydrate(ctx, identity)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.sessions[identity.Identity] = session
		m.mu.Unlock()

		m.logger.Info("session hydrated", slog.String("identity", identity.Identity))
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Session), nil
}

func (m *Manager) lookup(identity string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[identity]
	return session, ok
}

// hydrate assembles the session graph: tracker and journal subscribe to the
// emitter, the coordinator hydrates from the remote store, and the journal
// loads its ledgers from the local cache.
func (m *Manager) hydrate(ctx context.Context, identity syncer.Identity) (*Session, error) {
	emitter := events.NewInMemoryEventEmitter(m.logger)

	tr, err := tracker.New(identity.Identity, m.cache, emitter, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build tracker: %w", err)
	}

	jr, err := journal.NewStore(identity.Identity, m.cache, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build journal: %w", err)
	}

	coordinator, err := syncer.NewCoordinator(identity, m.profiles, tr, m.queue, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build coordinator: %w", err)
	}

	emitter.RegisterHandler(coordinator)
	emitter.RegisterHandler(jr)

	jr.Load(ctx)
	if err := coordinator.StartSession(ctx); err != nil {
		return nil, fmt.Errorf("failed to hydrate session: %w", err)
	}

	return &Session{
		Identity:    identity,
		Tracker:     tr,
		Journal:     jr,
		Coordinator: coordinator,
	}, nil
}

// SignOut terminates the identity's session if one is live. Further pushes
// stop; locally cached data is kept for the next session. Signing out an
// identity with no live session is a no-op.
func (m *Manager) SignOut(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[identity]
	if !ok {
		return
	}
	session.Coordinator.Terminate()
	delete(m.sessions, identity)
	m.logger.Info("session signed out", slog.String("identity", identity))
}

// Shutdown terminates every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for identity, session := range m.sessions {
		session.Coordinator.Terminate()
		delete(m.sessions, identity)
	}
	m.logger.Info("all sessions terminated")
}
