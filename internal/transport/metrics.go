package transport

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes Prometheus metrics for the request engine's
// lifecycle and reliability layers. A nil collector is valid and
// records nothing.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	dedupJoins *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector registered on the default
// Prometheus registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the
// supplied registerer so independent client instances never collide.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_requests_total",
				Help: "Total number of API requests issued",
			},
			[]string{"method", "path", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paylink_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"path"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_cache_misses_total",
				Help: "Total number of response cache misses",
			},
			[]string{"path"},
		),
		dedupJoins: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_dedup_joins_total",
				Help: "Total number of callers coalesced onto an in-flight request",
			},
			[]string{"path"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "paylink_errors_total",
				Help: "Total number of normalized request failures",
			},
			[]string{"method", "path", "error_code"},
		),
	}
}

// RecordRequest records a settled request.
func (m *MetricsCollector) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCacheHit records a response served from cache.
func (m *MetricsCollector) RecordCacheHit(path string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(path).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *MetricsCollector) RecordCacheMiss(path string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(path).Inc()
}

// RecordDedupJoin records a caller joining an in-flight request.
func (m *MetricsCollector) RecordDedupJoin(path string) {
	if m == nil {
		return
	}
	m.dedupJoins.WithLabelValues(path).Inc()
}

// RecordError records a normalized failure.
func (m *MetricsCollector) RecordError(method, path, errorCode string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, path, errorCode).Inc()
}
