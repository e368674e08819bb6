package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/astropet-api/internal/domain"
	"github.com/phrazzld/astropet-api/internal/store"
)

// ProfileStore implements the store.ProfileStore interface using a PostgreSQL
// database as the storage backend. One row per identity holds the canonical
// profile document.
type ProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewProfileStore creates a new PostgreSQL implementation of the ProfileStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewProfileStore(db store.DBTX, logger *slog.Logger) *ProfileStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "profile_store")),
	}
}

// Ensure ProfileStore implements store.ProfileStore interface
var _ store.ProfileStore = (*ProfileStore)(nil)

// WithTx implements store.ProfileStore.WithTx
func (s *ProfileStore) WithTx(tx *sql.Tx) store.ProfileStore {
	return &ProfileStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.ProfileStore.Get.
// Returns store.ErrProfileNotFound if no document exists for the identity.
func (s *ProfileStore) Get(ctx context.Context, identity string) (*domain.UserProfile, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyIdentity)
	}

	var (
		profile    domain.UserProfile
		solvedJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT identity, display_name, email, level, total_experience, solved_items, updated_at
		FROM user_profiles
		WHERE identity = $1`, identity).
		Scan(
			&profile.Identity,
			&profile.DisplayName,
			&profile.Email,
			&profile.Level,
			&profile.TotalExperience,
			&solvedJSON,
			&profile.UpdatedAt,
		)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProfileNotFound
	}
	if err != nil {
		s.logger.Error("failed to get profile",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if err := json.Unmarshal(solvedJSON, &profile.SolvedItems); err != nil {
		return nil, store.NewStoreError("profile", "get", "malformed solved_items column", err)
	}
	if profile.SolvedItems == nil {
		profile.SolvedItems = []string{}
	}

	return &profile, nil
}

// Create implements store.ProfileStore.Create.
// Returns store.ErrProfileExists if a document for the identity already exists.
func (s *ProfileStore) Create(ctx context.Context, profile *domain.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	solvedJSON, err := json.Marshal(profile.SolvedItems)
	if err != nil {
		return store.NewStoreError("profile", "create", "failed to encode solved items", err)
	}

	profile.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (identity, display_name, email, level, total_experience, solved_items, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.Identity,
		profile.DisplayName,
		profile.Email,
		profile.Level,
		profile.TotalExperience,
		solvedJSON,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrProfileExists
		}
		s.logger.Error("failed to create profile",
			slog.String("error", err.Error()))
		return MapError(err)
	}

	s.logger.Debug("created profile",
		slog.Int("level", profile.Level),
		slog.Int("solved_count", profile.SolvedCount()))
	return nil
}

// PatchProgress implements store.ProfileStore.PatchProgress. Only the progress
// fields are written; display name and email stay untouched so concurrent
// writes by the identity collaborator are preserved.
func (s *ProfileStore) PatchProgress(
	ctx context.Context,
	identity string,
	solvedItems []string,
	level, totalXP int,
) error {
	if identity == "" {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyIdentity)
	}
	if solvedItems == nil {
		solvedItems = []string{}
	}

	solvedJSON, err := json.Marshal(solvedItems)
	if err != nil {
		return store.NewStoreError("profile", "patch", "failed to encode solved items", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_profiles
		SET solved_items = $2,
		    level = $3,
		    total_experience = $4,
		    updated_at = $5
		WHERE identity = $1`,
		identity, solvedJSON, level, totalXP, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to patch profile progress",
			slog.String("error", err.Error()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("profile", "patch", "failed to read rows affected", err)
	}
	if rows == 0 {
		return store.ErrProfileNotFound
	}

	s.logger.Debug("patched profile progress",
		slog.Int("level", level),
		slog.Int("solved_count", len(solvedItems)))
	return nil
}
