package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics wraps prometheus collectors for the resolution engine.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	resolutionsTotal *prometheus.CounterVec
	manifestHits     *prometheus.CounterVec

	resolutionDepth *prometheus.HistogramVec
	backendLatency  *prometheus.HistogramVec

	uptime prometheus.GaugeFunc
}

var defaultDepthBuckets = []float64{1, 2, 3, 5, 8, 13, 21}
var defaultLatencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250}

var promMetrics *PrometheusMetrics
var startTime = time.Now()

// InitPrometheus initializes the Prometheus metrics subsystem under the
// given namespace (e.g. "gitconddb").
func InitPrometheus(namespace string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	pm := &PrometheusMetrics{
		registry: registry,

		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of top-level Get/IOVBoundaries resolutions",
			},
			[]string{"operation", "status"},
		),

		manifestHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "manifest_lookups_total",
				Help:      "Directory listings checked for an IOVs manifest",
			},
			[]string{"result"}, // hit, miss
		),

		resolutionDepth: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_depth",
				Help:      "Recursion depth reached per top-level resolution",
				Buckets:   defaultDepthBuckets,
			},
			[]string{"operation"},
		),

		backendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_call_milliseconds",
				Help:      "Latency of store.Backend calls in milliseconds",
				Buckets:   defaultLatencyBuckets,
			},
			[]string{"backend", "method"},
		),
	}

	pm.uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the process started",
		},
		func() float64 {
			return time.Since(startTime).Seconds()
		},
	)

	registry.MustRegister(
		pm.resolutionsTotal,
		pm.manifestHits,
		pm.resolutionDepth,
		pm.backendLatency,
		pm.uptime,
	)

	promMetrics = pm
}

// RecordResolution records a top-level Get/IOVBoundaries call's outcome and
// recursion depth.
func RecordResolution(operation string, depth int, failed bool) {
	global.RecordResolution(depth, failed)
	if promMetrics == nil {
		return
	}
	status := "ok"
	if failed {
		status = "failed"
	}
	promMetrics.resolutionsTotal.WithLabelValues(operation, status).Inc()
	promMetrics.resolutionDepth.WithLabelValues(operation).Observe(float64(depth))
}

// RecordManifestLookup records whether a directory carried an IOVs file.
func RecordManifestLookup(hit bool) {
	global.RecordManifestLookup(hit)
	if promMetrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	promMetrics.manifestHits.WithLabelValues(result).Inc()
}

// RecordBackendCall records the latency of one store.Backend method call.
func RecordBackendCall(backend, method string, d time.Duration) {
	global.RecordBackendCall(d)
	if promMetrics == nil {
		return
	}
	promMetrics.backendLatency.WithLabelValues(backend, method).Observe(float64(d.Milliseconds()))
}

// PrometheusHandler returns an HTTP handler for Prometheus scraping.
func PrometheusHandler() http.Handler {
	if promMetrics == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("prometheus metrics not initialized"))
		})
	}
	return promhttp.HandlerFor(promMetrics.registry, promhttp.HandlerOpts{})
}

// PrometheusRegistry returns the registry, or nil if InitPrometheus hasn't
// been called.
func PrometheusRegistry() *prometheus.Registry {
	if promMetrics == nil {
		return nil
	}
	return promMetrics.registry
}
