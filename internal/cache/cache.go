// Package cache defines the minimal key-value abstraction
// store.CommitTimeCache needs to memoize commit_time(ref) lookups: get,
// set-with-ttl, and close. Nothing else in gitconddb caches anything —
// resolved payloads are never cached — so the interface carries no
// Delete/Exists/Ping surface, since no real caller here exercises one.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the cache.
var ErrNotFound = errors.New("cache: key not found")

// Cache abstracts the key-value store backing store.CommitTimeCache.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the value associated with key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL means the entry
	// does not expire — the common case for a commit_time fact, which
	// never changes once a ref names a concrete commit.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases all resources held by the cache implementation.
	Close() error
}
