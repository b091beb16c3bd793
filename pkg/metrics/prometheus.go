// Package metrics provides Prometheus metrics for the DingerZone site server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the site.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pages
	pageViews   *prometheus.CounterVec
	shareViews  *prometheus.CounterVec
	shareErrors *prometheus.CounterVec

	// Upstream API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  prometheus.Histogram

	// Share cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheCoalesced prometheus.Counter
	cacheSize      prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpPanics          prometheus.Counter

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dingerzone",
		subsystem:        "site",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.pageViews = auto.NewCounterVec(
		m.counterOpts("page_views_total", "Rendered HTML pages by page name"),
		[]string{"page"},
	)
	m.shareViews = auto.NewCounterVec(
		m.counterOpts("share_views_total", "Shared video lookups by view (original, skeleton, api)"),
		[]string{"view"},
	)
	m.shareErrors = auto.NewCounterVec(
		m.counterOpts("share_errors_total", "Failed shared video lookups by error kind"),
		[]string{"kind"},
	)

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Calls to the remote share API by outcome"),
		[]string{"outcome"},
	)
	m.upstreamLatency = auto.NewHistogram(
		m.histogramOpts("upstream_latency_milliseconds", "Latency of remote share API calls in milliseconds", m.histogramBuckets),
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("share_cache_hits_total", "Share cache hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("share_cache_misses_total", "Share cache misses"))
	m.cacheCoalesced = auto.NewCounter(m.counterOpts("share_cache_coalesced_total", "Lookups that joined an in-flight fetch"))
	m.cacheSize = auto.NewGauge(m.gaugeOpts("share_cache_entries", "Entries currently held in the share cache"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpPanics = auto.NewCounter(m.counterOpts("http_panics_total", "Handler panics recovered by middleware"))

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordPageView increments the page view counter for page.
func (m *Manager) RecordPageView(page string) {
	if m.enabled {
		m.pageViews.WithLabelValues(page).Inc()
	}
}

// RecordShareView increments the shared video counter for the given view.
func (m *Manager) RecordShareView(view string) {
	if m.enabled {
		m.shareViews.WithLabelValues(view).Inc()
	}
}

// RecordShareError increments the failed lookup counter for kind.
func (m *Manager) RecordShareError(kind string) {
	if m.enabled {
		m.shareErrors.WithLabelValues(kind).Inc()
	}
}

// RecordUpstream records one remote API call.
func (m *Manager) RecordUpstream(outcome string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.upstreamRequests.WithLabelValues(outcome).Inc()
	m.upstreamLatency.Observe(latencyMs)
}

// RecordCacheHit increments the cache hit counter.
func (m *Manager) RecordCacheHit() {
	if m.enabled {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func (m *Manager) RecordCacheMiss() {
	if m.enabled {
		m.cacheMisses.Inc()
	}
}

// RecordCacheCoalesced increments the coalesced lookup counter.
func (m *Manager) RecordCacheCoalesced() {
	if m.enabled {
		m.cacheCoalesced.Inc()
	}
}

// UpdateCacheSize sets the cache entry gauge.
func (m *Manager) UpdateCacheSize(n int) {
	if m.enabled {
		m.cacheSize.Set(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPPanic increments the recovered panic counter.
func (m *Manager) RecordHTTPPanic() {
	if m.enabled {
		m.httpPanics.Inc()
	}
}

// RecordError records an error by type/severity and by endpoint.
func (m *Manager) RecordError(endpoint, method, errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystem sets the memory and goroutine gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordGCPause records an average GC pause in milliseconds.
func (m *Manager) RecordGCPause(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Package-level helpers operating on the global manager.

// RecordPageView increments the page view counter for page.
func RecordPageView(page string) { globalManager.RecordPageView(page) }

// RecordShareView increments the shared video counter for the given view.
func RecordShareView(view string) { globalManager.RecordShareView(view) }

// RecordShareError increments the failed lookup counter for kind.
func RecordShareError(kind string) { globalManager.RecordShareError(kind) }

// RecordUpstream records one remote API call.
func RecordUpstream(outcome string, latencyMs float64) {
	globalManager.RecordUpstream(outcome, latencyMs)
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() { globalManager.RecordCacheHit() }

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() { globalManager.RecordCacheMiss() }

// RecordCacheCoalesced increments the coalesced lookup counter.
func RecordCacheCoalesced() { globalManager.RecordCacheCoalesced() }

// UpdateCacheSize sets the cache entry gauge.
func UpdateCacheSize(n int) { globalManager.UpdateCacheSize(n) }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPPanic increments the recovered panic counter.
func RecordHTTPPanic() { globalManager.RecordHTTPPanic() }

// RecordError records an error by type/severity and by endpoint.
func RecordError(endpoint, method, errorType, severity string) {
	globalManager.RecordError(endpoint, method, errorType, severity)
}

// UpdateSystem sets the memory and goroutine gauges.
func UpdateSystem(memBytes uint64, goroutines int) { globalManager.UpdateSystem(memBytes, goroutines) }

// RecordGCPause records an average GC pause in milliseconds.
func RecordGCPause(pauseMs float64) { globalManager.RecordGCPause(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
