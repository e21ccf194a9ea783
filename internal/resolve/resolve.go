// Package resolve implements the top-level get and iov_boundaries
// recursion described in spec.md §4.5: directory detection, manifest
// consultation, child descent, and directory-converter invocation, driven
// entirely through the store.Backend contract.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gitconddb/gitconddb/internal/iov"
	"github.com/gitconddb/gitconddb/internal/logging"
	"github.com/gitconddb/gitconddb/internal/manifest"
	"github.com/gitconddb/gitconddb/internal/metrics"
	"github.com/gitconddb/gitconddb/internal/observability"
	"github.com/gitconddb/gitconddb/internal/pathutil"
	"github.com/gitconddb/gitconddb/internal/store"
)

// manifestFileName is the reserved child-listing entry that marks an IOV
// folder.
const manifestFileName = "IOVs"

// DirConverter projects a directory listing to the payload string get
// returns when no IOVs manifest applies.
type DirConverter func(store.Directory) (string, error)

// Engine drives the resolution recursion against a single store.Backend.
type Engine struct {
	Backend      store.Backend
	BackendName  string
	Logger       logging.Logger
	DirConverter DirConverter
	Reduce       bool
}

// New returns an Engine with the default JSON-shaped directory converter
// and IOV reduction on, wired to backend.
func New(backend store.Backend, backendName string) *Engine {
	return &Engine{
		Backend:      backend,
		BackendName:  backendName,
		Logger:       logging.NullLogger(),
		DirConverter: DefaultDirConverter,
		Reduce:       true,
	}
}

func (e *Engine) logger() logging.Logger {
	if e.Logger == nil {
		return logging.NullLogger()
	}
	return e.Logger
}

func (e *Engine) backendGet(ctx context.Context, objectID string) (store.Object, error) {
	start := time.Now()
	obj, err := e.Backend.Get(ctx, objectID)
	metrics.RecordBackendCall(e.BackendName, "Get", time.Since(start))
	return obj, err
}

func (e *Engine) backendExists(ctx context.Context, objectID string) bool {
	start := time.Now()
	ok := e.Backend.Exists(ctx, objectID)
	metrics.RecordBackendCall(e.BackendName, "Exists", time.Since(start))
	return ok
}

// Get implements spec.md §4.5's get(key, bounds). tag/path form the Key
// together with t; bounds narrows the search (iov.Full() for unbounded).
func (e *Engine) Get(ctx context.Context, tag, path string, t iov.TimePoint, bounds iov.IOV) (payload string, result iov.IOV, err error) {
	ctx, span := observability.StartSpan(ctx, "resolve.Get",
		observability.AttrTag.String(tag),
		observability.AttrPath.String(path),
		observability.AttrBackend.String(e.BackendName),
	)
	defer span.End()

	depth := 0
	payload, result, err = e.get(ctx, tag, pathutil.Normalize(path), t, bounds, &depth)

	span.SetAttributes(observability.AttrDepth.Int(depth))
	if err != nil {
		observability.SetSpanError(span, err)
	} else {
		observability.SetSpanOK(span)
	}
	metrics.RecordResolution("get", depth, err != nil)
	return payload, result, err
}

func (e *Engine) get(ctx context.Context, tag, path string, t iov.TimePoint, bounds iov.IOV, depth *int) (string, iov.IOV, error) {
	*depth++
	objectID := store.FormatObjectID(tag, path)

	obj, err := e.backendGet(ctx, objectID)
	if err != nil {
		e.logger().Warning(fmt.Sprintf("resolve: get %s: %v", objectID, err))
		return "", iov.Invalid(), err
	}
	if !obj.IsDir {
		return obj.Blob, bounds, nil
	}

	hasManifest := containsString(obj.Dir.Files, manifestFileName)
	metrics.RecordManifestLookup(hasManifest)
	observability.SpanFromContext(ctx).SetAttributes(observability.AttrManifest.Bool(hasManifest))

	if hasManifest {
		manifestID := store.FormatObjectID(tag, pathutil.Join(path, manifestFileName))
		manifestObj, err := e.backendGet(ctx, manifestID)
		if err != nil {
			return "", iov.Invalid(), err
		}
		if manifestObj.IsDir {
			return "", iov.Invalid(), fmt.Errorf("%w: %s is a directory", store.ErrInvalidObjectType, manifestID)
		}

		child, childIOV, err := manifest.PickEntry(manifestObj.Blob, t, bounds, e.Reduce)
		if err != nil {
			return "", iov.Invalid(), fmt.Errorf("%s: %w", manifestID, err)
		}
		if !childIOV.Valid() {
			return "", iov.Invalid(), nil
		}

		childPath := pathutil.Normalize(pathutil.Join(path, child))
		e.logger().Debug(fmt.Sprintf("resolve: %s -> %s at %d", objectID, childPath, t))
		return e.get(ctx, tag, childPath, t, childIOV, depth)
	}

	listing, err := e.promote(ctx, tag, path, obj.Dir)
	if err != nil {
		return "", iov.Invalid(), err
	}
	rendered, err := e.converter()(listing)
	if err != nil {
		return "", iov.Invalid(), err
	}
	return rendered, iov.Invalid(), nil
}

// promote implements spec.md §4.5(B): a dirs entry moves to files if it
// carries a nested IOVs manifest; both lists are then sorted.
func (e *Engine) promote(ctx context.Context, tag, path string, dir store.Directory) (store.Directory, error) {
	dirs := make([]string, 0, len(dir.Dirs))
	files := append([]string(nil), dir.Files...)

	for _, name := range dir.Dirs {
		childManifest := store.FormatObjectID(tag, pathutil.Join(pathutil.Join(path, name), manifestFileName))
		if e.backendExists(ctx, childManifest) {
			files = append(files, name)
		} else {
			dirs = append(dirs, name)
		}
	}

	sort.Strings(dirs)
	sort.Strings(files)
	return store.Directory{Root: path, Dirs: dirs, Files: files}, nil
}

func (e *Engine) converter() DirConverter {
	if e.DirConverter == nil {
		return DefaultDirConverter
	}
	return e.DirConverter
}

// IOVBoundaries implements spec.md §4.5's iov_boundaries(tag, path, bounds).
func (e *Engine) IOVBoundaries(ctx context.Context, tag, path string, bounds iov.IOV) ([]iov.TimePoint, error) {
	ctx, span := observability.StartSpan(ctx, "resolve.IOVBoundaries",
		observability.AttrTag.String(tag),
		observability.AttrPath.String(path),
		observability.AttrBackend.String(e.BackendName),
	)
	defer span.End()

	normPath := pathutil.Normalize(path)
	if !bounds.Valid() {
		observability.SetSpanOK(span)
		return nil, nil
	}
	if !e.backendExists(ctx, store.FormatObjectID(tag, normPath)) {
		observability.SetSpanOK(span)
		return nil, nil
	}

	var out []iov.TimePoint
	depth := 0
	err := e.boundaries(ctx, tag, normPath, bounds, &depth, &out)

	span.SetAttributes(observability.AttrDepth.Int(depth))
	if err != nil {
		observability.SetSpanError(span, err)
	} else {
		observability.SetSpanOK(span)
	}
	metrics.RecordResolution("iov_boundaries", depth, err != nil)
	return out, err
}

func (e *Engine) boundaries(ctx context.Context, tag, path string, bounds iov.IOV, depth *int, out *[]iov.TimePoint) error {
	*depth++

	// Only the manifest sibling's existence matters here, not the current
	// object's own content: entries named by a parent manifest (e.g. "a",
	// "b" in a boundaries-only traversal) need never resolve to a real
	// blob, only to the question of whether they carry a nested IOVs file.
	manifestID := store.FormatObjectID(tag, pathutil.Join(path, manifestFileName))
	hasManifest := e.backendExists(ctx, manifestID)
	metrics.RecordManifestLookup(hasManifest)
	observability.SpanFromContext(ctx).SetAttributes(observability.AttrManifest.Bool(hasManifest))

	if !hasManifest {
		*out = append(*out, bounds.Since)
		return nil
	}

	manifestObj, err := e.backendGet(ctx, manifestID)
	if err != nil {
		return err
	}

	entries, err := manifest.ParseAll(manifestObj.Blob)
	if err != nil {
		return fmt.Errorf("%s: %w", manifestID, err)
	}

	for _, entry := range entries {
		if !entry.IOV.Overlaps(bounds) {
			continue
		}
		childBounds := entry.IOV.Intersect(bounds)
		childPath := pathutil.Normalize(pathutil.Join(path, entry.Child))
		if err := e.boundaries(ctx, tag, childPath, childBounds, depth, out); err != nil {
			return err
		}
	}
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
