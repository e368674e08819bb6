package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/astropet-api/internal/domain"
)

// ProfileStore defines the interface for the durable, per-identity profile
// document store. The remote store is the system of record for UserProfile;
// writes use merge semantics so fields written by other collaborators are
// preserved.
type ProfileStore interface {
	// Get retrieves the profile document for the given identity.
	// Returns ErrProfileNotFound if no document exists.
	Get(ctx context.Context, identity string) (*domain.UserProfile, error)

	// Create saves a new profile document.
	// Returns ErrProfileExists if a document for the identity already exists.
	// Returns validation errors from the domain UserProfile if data is invalid.
	Create(ctx context.Context, profile *domain.UserProfile) error

	// PatchProgress merge-patches only the progress fields of the document:
	// solved items, level, and total experience, stamping updated_at. Other
	// fields (display name, email) are left untouched.
	// Returns ErrProfileNotFound if no document exists for the identity.
	PatchProgress(ctx context.Context, identity string, solvedItems []string, level, totalXP int) error

	// WithTx returns a new ProfileStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ProfileStore
}
