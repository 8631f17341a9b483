package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Custom histogram buckets for API response times from milliseconds up to
	// the platform timeout range; the hosted store adds a network round trip
	// per key so the tail matters.
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21}

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Store Client Metrics (hosted KV over REST)
	KVRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Key-value store operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	KVRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of key-value store operations",
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	// Business Metrics
	WebhookIngestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datamon_webhook_ingestions_total",
			Help: "Total number of webhook ingestion attempts",
		},
		[]string{"status"},
	)

	WebhooksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datamon_webhooks_created_total",
			Help: "Total number of webhooks created",
		},
	)

	WebhooksDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datamon_webhooks_deleted_total",
			Help: "Total number of webhooks deleted",
		},
	)

	ProjectsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datamon_projects_created_total",
			Help: "Total number of projects created",
		},
	)
)

// MeasureDuration returns the elapsed time since start in seconds
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// RecordKVOperation records metrics for a single store operation
func RecordKVOperation(operation, status string, start time.Time) {
	duration := MeasureDuration(start)
	KVRequestDuration.WithLabelValues(operation, status).Observe(duration)
	KVRequestTotal.WithLabelValues(operation, status).Inc()
}
