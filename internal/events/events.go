package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SolvedSetChangedEvent reports that a session's solved-item set changed.
// It carries the complete new set, not a delta: subscribers reconcile against
// whatever state they hold.
type SolvedSetChangedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Identity is the user whose solved set changed
	Identity string `json:"identity"`

	// SolvedItems is the complete solved-item identifier set after the change
	SolvedItems []string `json:"solved_items"`

	// OccurredAt is the timestamp when the event was created
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSolvedSetChangedEvent creates a new event for the given identity and set.
// The slice is copied so later tracker mutations cannot alter the event.
func NewSolvedSetChangedEvent(identity string, solvedItems []string) *SolvedSetChangedEvent {
	items := make([]string, len(solvedItems))
	copy(items, solvedItems)

	return &SolvedSetChangedEvent{
		ID:          uuid.New(),
		Identity:    identity,
		SolvedItems: items,
		OccurredAt:  time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *SolvedSetChangedEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the tracker to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *SolvedSetChangedEvent) error
}
