package store

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/gitconddb/gitconddb/internal/cache"
	"github.com/gitconddb/gitconddb/internal/iov"
)

// CommitTimeCache decorates a Backend with a memoized CommitTime: the
// underlying ref→commit_time fact is immutable once a ref names a
// concrete commit, so caching it carries none of the staleness risk that
// ruled out caching resolved payloads. Exists, Get and Connected pass
// straight through to the wrapped back-end; Disconnect also closes the
// cache.
type CommitTimeCache struct {
	Backend
	cache  cache.Cache
	prefix string
	ttl    time.Duration
}

// NewCommitTimeCache wraps backend, memoizing CommitTime lookups in c
// under keyPrefix for ttl (zero means the cache implementation's
// default/no expiration).
func NewCommitTimeCache(backend Backend, c cache.Cache, keyPrefix string, ttl time.Duration) *CommitTimeCache {
	return &CommitTimeCache{Backend: backend, cache: c, prefix: keyPrefix, ttl: ttl}
}

func (c *CommitTimeCache) cacheKey(ref string) string {
	return c.prefix + ref
}

// CommitTime returns the cached commit_time for ref if present, otherwise
// resolves it from the wrapped Backend and stores it before returning.
func (c *CommitTimeCache) CommitTime(ctx context.Context, ref string) (iov.TimePoint, error) {
	key := c.cacheKey(ref)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		return decodeTimePoint(raw), nil
	} else if !errors.Is(err, cache.ErrNotFound) {
		// Cache unavailable: fall through to the backend rather than fail
		// the whole lookup.
		_ = err
	}

	t, err := c.Backend.CommitTime(ctx, ref)
	if err != nil {
		return 0, err
	}

	_ = c.cache.Set(ctx, key, encodeTimePoint(t), c.ttl)
	return t, nil
}

// Disconnect releases the wrapped backend's connection and the cache
// client's.
func (c *CommitTimeCache) Disconnect() error {
	cacheErr := c.cache.Close()
	backendErr := c.Backend.Disconnect()
	if backendErr != nil {
		return backendErr
	}
	return cacheErr
}

func encodeTimePoint(t iov.TimePoint) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t))
	return buf
}

func decodeTimePoint(raw []byte) iov.TimePoint {
	if len(raw) < 8 {
		return 0
	}
	return iov.TimePoint(binary.BigEndian.Uint64(raw))
}
