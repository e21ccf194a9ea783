// Package metrics collects resolution-engine observability data: depth of
// recursive descent, manifest hit/miss counts, and back-end latency, for
// scraping by Prometheus (prometheus.go).
//
// # Concurrency
//
// Record* is called from internal/resolve on every Get/IOVBoundaries step
// and must be cheap; counters use atomic increments, no locks on the hot
// path.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics collects in-process resolution counters, independent of whether
// the Prometheus registry (prometheus.go) is also initialized.
type Metrics struct {
	ResolutionsTotal  atomic.Int64
	ResolutionsFailed atomic.Int64
	ManifestHits      atomic.Int64
	ManifestMisses    atomic.Int64

	TotalDepth   atomic.Int64
	MaxDepth     atomic.Int64
	BackendCalls atomic.Int64
	BackendNanos atomic.Int64

	startTime time.Time
}

var global = &Metrics{startTime: time.Now()}

// Global returns the process-wide Metrics instance.
func Global() *Metrics { return global }

// RecordResolution records the outcome and recursion depth of one
// top-level Get or IOVBoundaries call.
func (m *Metrics) RecordResolution(depth int, failed bool) {
	m.ResolutionsTotal.Add(1)
	if failed {
		m.ResolutionsFailed.Add(1)
	}
	m.TotalDepth.Add(int64(depth))
	for {
		cur := m.MaxDepth.Load()
		if int64(depth) <= cur || m.MaxDepth.CompareAndSwap(cur, int64(depth)) {
			break
		}
	}
}

// RecordManifestLookup records whether a directory had an IOVs manifest.
func (m *Metrics) RecordManifestLookup(hit bool) {
	if hit {
		m.ManifestHits.Add(1)
	} else {
		m.ManifestMisses.Add(1)
	}
}

// RecordBackendCall records the latency of one store.Backend call.
func (m *Metrics) RecordBackendCall(d time.Duration) {
	m.BackendCalls.Add(1)
	m.BackendNanos.Add(d.Nanoseconds())
}

// Uptime returns the duration since the Metrics instance was created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
