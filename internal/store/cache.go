package store

import "context"

// CacheStore defines the interface for the on-device local cache: a
// synchronous key-value layer with no network dependency. Payloads are opaque
// text blobs; callers own serialization and must tolerate a missing key
// (treat as empty) and a malformed value (treat as empty, never raise).
type CacheStore interface {
	// Get returns the payload stored under key.
	// Returns ErrCacheMiss if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the payload under key, replacing any prior value. The write
	// completes before Set returns.
	Set(ctx context.Context, key string, payload []byte) error

	// Delete removes the entry for key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
