package store

import (
	"context"
	"testing"

	"github.com/gitconddb/gitconddb/internal/cache"
	"github.com/gitconddb/gitconddb/internal/iov"
)

type stubBackend struct {
	Backend
	calls int
	t     iov.TimePoint
}

func (s *stubBackend) CommitTime(context.Context, string) (iov.TimePoint, error) {
	s.calls++
	return s.t, nil
}

func TestCommitTimeCache_MemoizesLookup(t *testing.T) {
	backend := &stubBackend{t: 1000}
	c := NewCommitTimeCache(backend, cache.NewInMemoryCache(), "ct:", 0)

	ctx := context.Background()
	first, err := c.CommitTime(ctx, "v1")
	if err != nil {
		t.Fatalf("CommitTime: %v", err)
	}
	second, err := c.CommitTime(ctx, "v1")
	if err != nil {
		t.Fatalf("CommitTime: %v", err)
	}
	if first != second {
		t.Fatalf("expected consistent result, got %v and %v", first, second)
	}
	if backend.calls != 1 {
		t.Fatalf("expected backend to be called once, got %d", backend.calls)
	}
}

func TestCommitTimeCache_DifferentRefsDoNotCollide(t *testing.T) {
	backend := &stubBackend{t: 42}
	c := NewCommitTimeCache(backend, cache.NewInMemoryCache(), "ct:", 0)

	ctx := context.Background()
	if _, err := c.CommitTime(ctx, "v1"); err != nil {
		t.Fatalf("CommitTime: %v", err)
	}
	if _, err := c.CommitTime(ctx, "v2"); err != nil {
		t.Fatalf("CommitTime: %v", err)
	}
	if backend.calls != 2 {
		t.Fatalf("expected backend called for each distinct ref, got %d", backend.calls)
	}
}
