package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// View counter metrics
	LeadViewsTotal     *prometheus.CounterVec
	ViewDedupeErrors   prometheus.Counter
	ViewRecordDuration prometheus.Histogram

	// Rate limiting metrics
	RateLimitExceededTotal *prometheus.CounterVec

	// Redis metrics
	RedisOperationDuration *prometheus.HistogramVec
	RedisOperationsTotal   *prometheus.CounterVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics with the default registry
func Initialize() *Metrics {
	once.Do(func() {
		instance = newMetrics(promauto.With(prometheus.DefaultRegisterer))
	})
	return instance
}

func newMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response body size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path", "status"},
		),
		HTTPActiveConnections: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of in-progress HTTP requests",
			},
			[]string{"method", "path"},
		),

		LeadViewsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_views_total",
				Help: "Lead view reports, by whether they incremented the counter",
			},
			[]string{"counted"},
		),
		ViewDedupeErrors: f.NewCounter(
			prometheus.CounterOpts{
				Name: "lead_view_dedupe_errors_total",
				Help: "View dedupe lookups that failed and fell back to counting",
			},
		),
		ViewRecordDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lead_view_record_duration_seconds",
				Help:    "Time spent incrementing a lead view in the database",
				Buckets: prometheus.DefBuckets,
			},
		),

		RateLimitExceededTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_exceeded_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"path", "method"},
		),

		RedisOperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redis_operation_duration_seconds",
				Help:    "Redis operation latency in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"operation"},
		),
		RedisOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation", "status"},
		),

		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Errors by type and endpoint",
			},
			[]string{"type", "endpoint"},
		),
	}
}

// NewForRegistry builds an unshared Metrics set registered on reg
func NewForRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

// Get returns the global metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
