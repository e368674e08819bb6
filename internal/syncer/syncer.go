// Package syncer coordinates the session's working profile with the remote
// profile store. It hydrates the session at start, watches the solved set for
// changes, and mirrors progress to the remote store with merge-patch writes.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/events"
	"github.com/phrazzld/astropet-api/internal/progression"
	"github.com/phrazzld/astropet-api/internal/store"
	"github.com/phrazzld/astropet-api/internal/task"
	"github.com/phrazzld/astropet-api/internal/tracker"
)

// State is the coordinator's per-session lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateHydrating     State = "hydrating"
	StateSynced        State = "synced"
	StateTerminated    State = "terminated"
)

// ErrSessionTerminated is returned when an operation is attempted after the
// session has been terminated.
var ErrSessionTerminated = errors.New("session terminated")

// Identity carries what the identity collaborator knows about the user.
// DisplayName and Email may be empty.
type Identity struct {
	Identity    string
	DisplayName string
	Email       string
}

// Coordinator owns the working profile for one session. It subscribes to
// solved-set changes, recomputes progression, and pushes progress to the
// remote store asynchronously. Pushes never block the caller; a failed push
// leaves the working profile unchanged.
type Coordinator struct {
	identity Identity
	profiles store.ProfileStore
	tracker  *tracker.Tracker
	queue    task.TaskQueueWriter
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	profile *domain.UserProfile
}

// NewCoordinator creates a Coordinator in the Uninitialized state.
// If logger is nil, a default logger will be used.
func NewCoordinator(
	identity Identity,
	profiles store.ProfileStore,
	tr *tracker.Tracker,
	queue task.TaskQueueWriter,
	logger *slog.Logger,
) (*Coordinator, error) {
	if identity.Identity == "" {
		return nil, domain.ErrEmptyIdentity
	}
	if profiles == nil {
		return nil, domain.NewValidationError("profiles", "cannot be nil", domain.ErrValidation)
	}
	if tr == nil {
		return nil, domain.NewValidationError("tracker", "cannot be nil", domain.ErrValidation)
	}
	if queue == nil {
		return nil, domain.NewValidationError("queue", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		identity: identity,
		profiles: profiles,
		tracker:  tr,
		queue:    queue,
		logger: logger.With(
			slog.String("component", "sync_coordinator"),
			slog.String("identity", identity.Identity),
		),
		state: StateUninitialized,
	}, nil
}

// StartSession hydrates the session. The remote profile wins when it exists:
// its solved set is seeded into the tracker, replacing whatever the local
// cache held. A missing remote profile is created fresh; an unreachable
// remote store degrades the session to local-only. The session always ends
// hydration in the Synced state.
func (c *Coordinator) StartSession(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return ErrSessionTerminated
	}
	c.state = StateHydrating
	c.mu.Unlock()

	c.tracker.Load(ctx)

	profile, err := c.profiles.Get(ctx, c.identity.Identity)
	switch {
	case err == nil:
		c.logger.Info("hydrated from remote profile",
			slog.Int("level", profile.Level),
			slog.Int("solved_count", profile.SolvedCount()))
		if err := c.tracker.Seed(ctx, profile.SolvedItems); err != nil {
			c.logger.Warn("failed to persist seeded playlist",
				slog.String("error", err.Error()))
		}

	case errors.Is(err, store.ErrProfileNotFound):
		profile, err = c.createRemoteProfile(ctx)
		if err != nil {
			return err
		}

	default:
		// Remote unreachable. The session runs local-only until the next
		// successful push.
		c.logger.Warn("remote profile store unreachable, falling back to local state",
			slog.String("error", err.Error()))
		profile = c.localFallbackProfile()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateTerminated {
		return ErrSessionTerminated
	}
	c.profile = profile
	c.state = StateSynced
	return nil
}

// createRemoteProfile writes a fresh level-1 document for the identity. Local
// solved items are not folded into the new document here; the next solved-set
// change reconciles them through the normal push path.
func (c *Coordinator) createRemoteProfile(ctx context.Context) (*domain.UserProfile, error) {
	profile, err := domain.NewUserProfile(c.identity.Identity, c.identity.DisplayName, c.identity.Email)
	if err != nil {
		return nil, err
	}

	if err := c.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, store.ErrProfileExists) {
			// Lost a create race; the winner's document is authoritative.
			return c.profiles.Get(ctx, c.identity.Identity)
		}
		c.logger.Warn("failed to create remote profile, falling back to local state",
			slog.String("error", err.Error()))
		return c.localFallbackProfile(), nil
	}

	c.logger.Info("created remote profile")
	return profile, nil
}

// localFallbackProfile builds a working profile from the locally cached
// solved set, with the level derived from its count.
func (c *Coordinator) localFallbackProfile() *domain.UserProfile {
	solved := c.tracker.SolvedIDs()
	prog := progression.Derive(len(solved))
	displayName := c.identity.DisplayName
	if displayName == "" {
		displayName = domain.FallbackDisplayName(c.identity.Email)
	}
	return &domain.UserProfile{
		Identity:        c.identity.Identity,
		DisplayName:     displayName,
		Email:           c.identity.Email,
		Level:           prog.Level,
		TotalExperience: len(solved),
		SolvedItems:     solved,
		UpdatedAt:       time.Now().UTC(),
	}
}

// HandleEvent reacts to a solved-set change: it derives the new progression
// and, when the set's cardinality differs from the working profile's solved
// count, enqueues an asynchronous merge-patch push. The level-change clause
// is subsumed by the count gate, since the level is a function of the count.
func (c *Coordinator) HandleEvent(ctx context.Context, event *events.SolvedSetChangedEvent) error {
	if event.Identity != c.identity.Identity {
		return nil
	}

	c.mu.Lock()
	if c.state != StateSynced {
		c.mu.Unlock()
		c.logger.Debug("ignoring solved set change outside synced state",
			slog.String("state", string(c.state)))
		return nil
	}
	knownCount := c.profile.SolvedCount()
	c.mu.Unlock()

	if len(event.SolvedItems) == knownCount {
		return nil
	}

	prog := progression.Derive(len(event.SolvedItems))
	push := newPushTask(c, event.SolvedItems, prog.Level, len(event.SolvedItems))

	if err := c.queue.Enqueue(push); err != nil {
		// A dropped push is non-fatal; the next change retries implicitly
		// because the working profile still holds the old count.
		c.logger.Warn("failed to enqueue profile push",
			slog.String("error", err.Error()))
		return nil
	}

	c.logger.Debug("enqueued profile push",
		slog.Int("level", prog.Level),
		slog.Int("solved_count", len(event.SolvedItems)))
	return nil
}

// applyPush performs the remote merge-patch for a queued push and, on
// success, adopts the pushed values into the working profile. Pushes racing a
// termination are allowed to complete but do not resurrect session state.
func (c *Coordinator) applyPush(ctx context.Context, solvedItems []string, level, totalXP int) error {
	err := c.profiles.PatchProgress(ctx, c.identity.Identity, solvedItems, level, totalXP)
	if err != nil {
		c.logger.Warn("remote profile push failed, keeping prior working profile",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to push profile progress: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSynced {
		return nil
	}
	c.profile.SolvedItems = solvedItems
	c.profile.Level = level
	c.profile.TotalExperience = totalXP
	c.profile.UpdatedAt = time.Now().UTC()

	c.logger.Info("pushed progress to remote profile",
		slog.Int("level", level),
		slog.Int("solved_count", totalXP))
	return nil
}

// Profile returns a snapshot of the working profile, or nil before hydration.
func (c *Coordinator) Profile() *domain.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	snapshot := *c.profile
	snapshot.SolvedItems = append([]string(nil), c.profile.SolvedItems...)
	return &snapshot
}

// Progression derives the current progression from the live solved set.
func (c *Coordinator) Progression() progression.Progression {
	return progression.Derive(len(c.tracker.SolvedIDs()))
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Terminate ends the session. No further pushes are enqueued; pushes already
// in flight complete or fail silently.
func (c *Coordinator) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateTerminated {
		return
	}
	c.state = StateTerminated
	c.logger.Info("session terminated")
}

var _ events.EventHandler = (*Coordinator)(nil)
