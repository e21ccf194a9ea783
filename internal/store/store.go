// Package store implements the object-store abstraction that the
// resolution engine reads through: a single Backend contract with
// interchangeable implementations (versioned git store, plain filesystem
// tree, in-memory document, and a supplemental S3-backed store), the same
// interface-with-swappable-implementations shape as the teacher's
// internal/cache.Cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gitconddb/gitconddb/internal/iov"
)

// Sentinel error kinds. Every hard error embeds the offending object id via
// fmt.Errorf's %w wrapping; callers can still errors.Is against these.
var (
	ErrUnresolvableObject = errors.New("store: unresolvable object")
	ErrInvalidObjectType  = errors.New("store: invalid object type")
	ErrBackendInit        = errors.New("store: backend init failure")
)

// Object is the tagged union a Backend returns for a given object id:
// either a Blob or a Directory listing, never both.
type Object struct {
	IsDir bool
	Blob  string
	Dir   Directory
}

// Directory is a listing for a non-leaf object id.
type Directory struct {
	Root  string
	Dirs  []string
	Files []string
}

// Backend is the contract the resolution engine depends on. It must not
// assume which concrete implementation it talks to.
type Backend interface {
	// Exists reports whether object_id can be resolved. Never errors.
	Exists(ctx context.Context, objectID string) bool

	// Get resolves object_id to a Blob or Directory listing.
	Get(ctx context.Context, objectID string) (Object, error)

	// CommitTime returns the wall-clock time point for a back-end ref.
	CommitTime(ctx context.Context, ref string) (iov.TimePoint, error)

	// Disconnect releases any held connection. Idempotent.
	Disconnect() error

	// Connected reports whether a connection handle is currently held.
	Connected() bool
}

// SplitObjectID splits "<tag>[:<path>]" into (tag, path). An id without a
// colon denotes the tag itself: SplitObjectID("v1") returns ("v1", "").
func SplitObjectID(objectID string) (tag, path string) {
	i := strings.IndexByte(objectID, ':')
	if i < 0 {
		return objectID, ""
	}
	return objectID[:i], objectID[i+1:]
}

// FormatObjectID builds "<tag>:<path>" from a tag and a (caller-normalized)
// path.
func FormatObjectID(tag, path string) string {
	return tag + ":" + path
}

func unresolvable(objectID string) error {
	return fmt.Errorf("%w: %s", ErrUnresolvableObject, objectID)
}

func invalidType(objectID string) error {
	return fmt.Errorf("%w: invalid type at %s", ErrInvalidObjectType, objectID)
}

// LazyHandle guards a lazily-constructed handle of type T behind a mutex,
// matching spec.md's "Lazy connection guard" design note: a lock around an
// optional owned handle, repopulated from a captured factory on read. The
// factory is captured by value at construction and must not close over any
// object whose lifetime can end before the LazyHandle's own.
type LazyHandle[T any] struct {
	mu      sync.Mutex
	factory func() (T, error)
	handle  *T
}

// NewLazyHandle wraps factory in a lazily-populated, mutex-guarded handle.
func NewLazyHandle[T any](factory func() (T, error)) *LazyHandle[T] {
	return &LazyHandle[T]{factory: factory}
}

// Get returns the current handle, constructing it via the factory if one
// isn't already held.
func (h *LazyHandle[T]) Get() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handle == nil {
		v, err := h.factory()
		if err != nil {
			var zero T
			return zero, err
		}
		h.handle = &v
	}
	return *h.handle, nil
}

// Connected reports whether a handle is currently populated.
func (h *LazyHandle[T]) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handle != nil
}

// Reset drops the held handle; the next Get call repopulates it via the
// factory. release, if non-nil, runs on the previously-held handle before
// it's dropped.
func (h *LazyHandle[T]) Reset(release func(T)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handle != nil && release != nil {
		release(*h.handle)
	}
	h.handle = nil
}
