// Package sqlitecache implements the local cache tier on top of an on-box
// SQLite database. The cache is synchronous, has no network dependency, and
// stores opaque text payloads under namespaced keys.
package sqlitecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/phrazzld/astropet-api/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Cache is the SQLite-backed implementation of store.CacheStore.
type Cache struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Ensure Cache implements store.CacheStore interface
var _ store.CacheStore = (*Cache)(nil)

// Open creates (if needed) and opens the cache database at the given path.
// The parent directory is created when missing. If logger is nil, a default
// logger will be used.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite does not support multiple writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_cache")),
	}, nil
}

// Get implements store.CacheStore.Get.
// Returns store.ErrCacheMiss if the key is absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := c.db.GetContext(ctx, &payload,
		"SELECT payload FROM cache_entries WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCacheMiss
	}
	if err != nil {
		return nil, store.NewStoreError("cache entry", "get", "query failed", err)
	}
	return []byte(payload), nil
}

// Set implements store.CacheStore.Set. The row is fully replaced; the write
// has completed when Set returns.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key, string(payload), time.Now().UTC())
	if err != nil {
		return store.NewStoreError("cache entry", "set", "upsert failed", err)
	}
	return nil
}

// Delete implements store.CacheStore.Delete.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	if err != nil {
		return store.NewStoreError("cache entry", "delete", "exec failed", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
