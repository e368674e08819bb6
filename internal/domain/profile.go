package domain

import (
	"strings"
	"time"
)

// DefaultDisplayName is used when neither the remote profile nor the identity
// collaborator supplies a usable display name.
const DefaultDisplayName = "User"

// UserProfile is the canonical per-identity progress document. The remote
// profile store holds the durable copy; the in-memory copy held during a
// session is a cache with last-write-wins semantics on push.
type UserProfile struct {
	// Identity is the opaque stable key identifying one user across sessions.
	Identity string `json:"identity"`

	// DisplayName is informational; it falls back to a value derived from the
	// identity collaborator when absent.
	DisplayName string `json:"display_name"`

	// Email is informational only.
	Email string `json:"email"`

	// Level is derived from the solved-item count; it is at least 1.
	Level int `json:"level"`

	// TotalExperience equals the solved-item count at the last sync.
	TotalExperience int `json:"total_experience"`

	// SolvedItems holds the identifiers of every solved item. Order is
	// irrelevant; identifiers are unique.
	SolvedItems []string `json:"solved_items"`

	// UpdatedAt is set on every write to the remote store.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserProfile creates a fresh level-1 profile for the given identity.
// DisplayName falls back to the local part of the email, then to
// DefaultDisplayName, matching what a brand-new account looks like.
func NewUserProfile(identity, displayName, email string) (*UserProfile, error) {
	if identity == "" {
		return nil, ErrEmptyIdentity
	}

	if displayName == "" {
		displayName = FallbackDisplayName(email)
	}

	profile := &UserProfile{
		Identity:        identity,
		DisplayName:     displayName,
		Email:           email,
		Level:           1,
		TotalExperience: 0,
		SolvedItems:     []string{},
		UpdatedAt:       time.Now().UTC(),
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}

// FallbackDisplayName derives a display name from an email address, using the
// part before the "@". Returns DefaultDisplayName when nothing usable remains.
func FallbackDisplayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return DefaultDisplayName
}

// Validate checks if the UserProfile has valid data.
// Returns an error if any field fails validation.
func (p *UserProfile) Validate() error {
	if p.Identity == "" {
		return ErrEmptyIdentity
	}
	if p.Level < 1 {
		return ErrInvalidLevel
	}
	if p.TotalExperience < 0 {
		return ErrNegativeExperience
	}
	return nil
}

// SolvedCount returns the number of solved items recorded on the profile.
func (p *UserProfile) SolvedCount() int {
	return len(p.SolvedItems)
}
