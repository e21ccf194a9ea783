// Package gitconddb is the public façade over the conditions-database
// resolution engine: Connect picks a back-end from a URI, and the
// returned CondDB exposes Get and IOVBoundaries plus the handle-lifecycle
// operations spec.md §5 describes (Disconnect, Connected, ScopedConnection).
package gitconddb

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gitconddb/gitconddb/internal/audit"
	"github.com/gitconddb/gitconddb/internal/cache"
	"github.com/gitconddb/gitconddb/internal/config"
	"github.com/gitconddb/gitconddb/internal/iov"
	"github.com/gitconddb/gitconddb/internal/logging"
	"github.com/gitconddb/gitconddb/internal/metrics"
	"github.com/gitconddb/gitconddb/internal/observability"
	"github.com/gitconddb/gitconddb/internal/resolve"
	"github.com/gitconddb/gitconddb/internal/store"
	"github.com/google/uuid"
)

// metricsOnce guards InitPrometheus: the underlying registry panics on a
// second MustRegister of the same collector, so only the first Connect in
// a process wires the Prometheus subsystem.
var metricsOnce sync.Once

// Re-exported so callers need only import this package for the common
// path.
type (
	TimePoint = iov.TimePoint
	IOV       = iov.IOV
	Logger    = logging.Logger
)

var (
	Full    = iov.Full
	Invalid = iov.Invalid
)

// CondDB is a resolved connection to one conditions-database back-end.
type CondDB struct {
	engine  *resolve.Engine
	backend store.Backend
	uri     string

	audit *audit.Log
}

// Option configures a CondDB at Connect time.
type Option func(*options)

type options struct {
	logger       logging.Logger
	dirConverter resolve.DirConverter
	reduce       *bool
	audit        *audit.Log
	commitCache  cache.Cache
	cacheTTL     time.Duration
	cacheKeyPre  string
	metricsNS    string
}

// WithLogger sets the domain Logger the engine reports progress through.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDirConverter overrides the directory-to-payload projection used when
// a resolved object carries no IOVs manifest.
func WithDirConverter(fn resolve.DirConverter) Option {
	return func(o *options) { o.dirConverter = fn }
}

// WithIOVReduction toggles merging of consecutive manifest entries that
// name the same child token. Default: true.
func WithIOVReduction(on bool) Option {
	return func(o *options) { o.reduce = &on }
}

// WithAudit attaches a Postgres-backed audit trail; every Get and
// IOVBoundaries call is recorded after it completes.
func WithAudit(log *audit.Log) Option {
	return func(o *options) { o.audit = log }
}

// WithCommitTimeCache wraps the selected back-end's CommitTime lookups in
// a memoizing cache keyed under keyPrefix with the given ttl.
func WithCommitTimeCache(c cache.Cache, keyPrefix string, ttl time.Duration) Option {
	return func(o *options) {
		o.commitCache = c
		o.cacheKeyPre = keyPrefix
		o.cacheTTL = ttl
	}
}

// WithObservability starts the global OpenTelemetry provider and
// Prometheus registry for this process, governed by cfg.
func WithObservability(ctx context.Context, cfg config.ObservabilityConfig) Option {
	return func(o *options) {
		_ = observability.Init(ctx, observability.Config{
			Enabled:     cfg.Tracing.Enabled,
			Exporter:    cfg.Tracing.Exporter,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if cfg.Metrics.Enabled {
			o.metricsNS = cfg.Metrics.Namespace
			metricsOnce.Do(func() { metrics.InitPrometheus(o.metricsNS) })
		}
	}
}

// MetricsHandler returns an http.Handler serving the Prometheus registry
// populated by WithObservability, for embedding into a caller's own HTTP
// server. Returns a 503 handler until a CondDB has been Connect-ed with
// metrics enabled.
func MetricsHandler() http.Handler {
	return metrics.PrometheusHandler()
}

// Connect opens a CondDB against uri. Recognized schemes:
//
//	git:<path>                  versioned git store
//	file:<path>                 plain filesystem tree (tags ignored)
//	json:<inline-or-path>       in-memory document, for tests and CLI dump
//	s3://<bucket>/<prefix>      S3-backed remote store
//
// A URI with no recognized scheme is treated as a git path.
func Connect(uri string, opts ...Option) (*CondDB, error) {
	o := &options{
		logger:       logging.NullLogger(),
		dirConverter: resolve.DefaultDirConverter,
	}
	for _, opt := range opts {
		opt(o)
	}

	backendName, backend, err := openBackend(uri)
	if err != nil {
		return nil, err
	}

	if o.commitCache != nil {
		backend = store.NewCommitTimeCache(backend, o.commitCache, o.cacheKeyPre, o.cacheTTL)
	}

	engine := resolve.New(backend, backendName)
	engine.Logger = o.logger
	engine.DirConverter = o.dirConverter
	if o.reduce != nil {
		engine.Reduce = *o.reduce
	}

	return &CondDB{engine: engine, backend: backend, uri: uri, audit: o.audit}, nil
}

func openBackend(uri string) (name string, backend store.Backend, err error) {
	switch {
	case strings.HasPrefix(uri, "git:"):
		path := strings.TrimPrefix(uri, "git:")
		return "git", store.NewGitBackend(path), nil
	case strings.HasPrefix(uri, "file:"):
		path := strings.TrimPrefix(uri, "file:")
		b, err := store.NewFSBackend(path)
		if err != nil {
			return "", nil, err
		}
		return "fs", b, nil
	case strings.HasPrefix(uri, "json:"):
		source := strings.TrimPrefix(uri, "json:")
		b, err := store.NewDocBackend(source)
		if err != nil {
			return "", nil, err
		}
		return "doc", b, nil
	case strings.HasPrefix(uri, "s3://"):
		rest := strings.TrimPrefix(uri, "s3://")
		parts := strings.SplitN(rest, "/", 2)
		bucket := parts[0]
		prefix := ""
		if len(parts) == 2 {
			prefix = parts[1]
		}
		if bucket == "" {
			return "", nil, fmt.Errorf("gitconddb: s3 uri missing bucket: %q", uri)
		}
		return "s3", store.NewS3Backend(bucket, prefix), nil
	default:
		return "git", store.NewGitBackend(uri), nil
	}
}

// Get resolves (tag, path) at time t within bounds, returning the payload
// and the IOV it was valid for. Pass Full() for bounds to search the
// entire manifest.
func (c *CondDB) Get(ctx context.Context, tag, path string, t TimePoint, bounds IOV) (string, IOV, error) {
	start := time.Now()
	payload, result, err := c.engine.Get(ctx, tag, path, t, bounds)
	c.recordAudit(ctx, "get", tag, path, t, result, err, time.Since(start))
	return payload, result, err
}

// IOVBoundaries returns the time points at which the resolved tree
// structure changes within bounds, in traversal order; the result is
// neither sorted nor deduplicated.
func (c *CondDB) IOVBoundaries(ctx context.Context, tag, path string, bounds IOV) ([]TimePoint, error) {
	start := time.Now()
	points, err := c.engine.IOVBoundaries(ctx, tag, path, bounds)
	c.recordAudit(ctx, "iov_boundaries", tag, path, 0, IOV{Since: bounds.Since, Until: bounds.Until}, err, time.Since(start))
	return points, err
}

// CommitTime returns the wall-clock time point of ref on the underlying
// back-end.
func (c *CondDB) CommitTime(ctx context.Context, ref string) (TimePoint, error) {
	return c.backend.CommitTime(ctx, ref)
}

// Disconnect releases the underlying back-end connection. The CondDB may
// be reused afterward; the next operation reconnects lazily.
func (c *CondDB) Disconnect() error {
	return c.backend.Disconnect()
}

// Connected reports whether a connection handle is currently held.
func (c *CondDB) Connected() bool {
	return c.backend.Connected()
}

// SetLogger replaces the domain Logger used for subsequent operations.
func (c *CondDB) SetLogger(l Logger) {
	c.engine.Logger = l
}

// Logger returns the currently configured domain Logger.
func (c *CondDB) Logger() Logger {
	return c.engine.Logger
}

// SetIOVReduction toggles manifest-entry reduction for subsequent
// operations.
func (c *CondDB) SetIOVReduction(on bool) {
	c.engine.Reduce = on
}

// IOVReduction reports whether manifest-entry reduction is enabled.
func (c *CondDB) IOVReduction() bool {
	return c.engine.Reduce
}

// SetDirConverter replaces the directory-to-payload projection, returning
// whichever converter was previously installed so a caller can restore it.
func (c *CondDB) SetDirConverter(fn resolve.DirConverter) resolve.DirConverter {
	prev := c.engine.DirConverter
	c.engine.DirConverter = fn
	return prev
}

// ScopedConnection runs fn with a connection guaranteed to be disconnected
// on return, regardless of whether fn leaves it open.
func (c *CondDB) ScopedConnection(ctx context.Context, fn func(*CondDB) error) error {
	defer c.Disconnect()
	return fn(c)
}

func (c *CondDB) recordAudit(ctx context.Context, op, tag, path string, t TimePoint, result IOV, err error, d time.Duration) {
	if c.audit == nil {
		return
	}
	entry := audit.Entry{
		ID:         uuid.NewString(),
		Operation:  op,
		Tag:        tag,
		Path:       path,
		Backend:    c.engine.BackendName,
		QueryTime:  uint64(t),
		Since:      uint64(result.Since),
		Until:      uint64(result.Until),
		Success:    err == nil,
		DurationMs: d.Milliseconds(),
	}
	if err != nil {
		entry.ErrMessage = err.Error()
	}
	_ = c.audit.Record(ctx, entry)
}
