package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Case lookup metrics
	CaseLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "court_case_lookups_total",
			Help: "Total number of case lookups by outcome",
		},
		[]string{"outcome"},
	)

	// Adapter metrics
	AdapterCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "court_adapter_calls_total",
			Help: "Total number of court adapter calls",
		},
		[]string{"operation", "result"},
	)

	AdapterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "court_adapter_duration_seconds",
			Help:    "Duration of court adapter calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// Cause list metrics
	CauseListRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "court_cause_list_rows_written_total",
			Help: "Total number of cause list rows written by refreshes",
		},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "court_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "court_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "court_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// Lookup outcomes.
const (
	OutcomeCacheHit   = "cache_hit"
	OutcomeStoreHit   = "store_hit"
	OutcomeFetched    = "fetched"
	OutcomeFetchError = "fetch_error"
	OutcomeInvalid    = "invalid"
)

// ObserveAdapter records one adapter call. result is "ok" or the failure
// kind.
func ObserveAdapter(operation, result string, started time.Time) {
	AdapterCalls.WithLabelValues(operation, result).Inc()
	AdapterDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
