// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Score metrics
	ScoreReads          *prometheus.CounterVec
	ScoreSubmissions    *prometheus.CounterVec
	ScoreComputeLatency *prometheus.HistogramVec
	TiersIssued         *prometheus.CounterVec
	ScoreTotals         prometheus.Histogram

	// Signal metrics
	DatasetDegradations *prometheus.CounterVec
	SignalCacheLookups  *prometheus.CounterVec

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "credit_risk_engine"
	}

	return &Metrics{
		// Score metrics
		ScoreReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "reads_total",
			Help:      "Total number of score reads by terminal outcome",
		}, []string{"outcome"}),
		ScoreSubmissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "submissions_total",
			Help:      "Total number of externally submitted scores by status",
		}, []string{"status"}),
		ScoreComputeLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "compute_duration_seconds",
			Help:      "Score computation duration in seconds by attempt",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"attempt"}),
		TiersIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "tiers_issued_total",
			Help:      "Total number of score records issued by tier and source",
		}, []string{"tier", "source"}),
		ScoreTotals: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "total",
			Help:      "Distribution of issued total scores",
			Buckets:   []float64{300, 450, 600, 750, 850, 1000},
		}),

		// Signal metrics
		DatasetDegradations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "dataset_degradations_total",
			Help:      "Total number of datasets replaced by neutral values",
		}, []string{"dataset"}),
		SignalCacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "cache_lookups_total",
			Help:      "Total number of signal cache lookups by result",
		}, []string{"result"}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScoreRead increments the reads counter for a terminal outcome.
func RecordScoreRead(outcome string) {
	DefaultMetrics.ScoreReads.WithLabelValues(outcome).Inc()
}

// RecordSubmission records an external score submission.
func RecordSubmission(status string) {
	DefaultMetrics.ScoreSubmissions.WithLabelValues(status).Inc()
}

// RecordComputeDuration records one computation attempt.
func RecordComputeDuration(attempt string, seconds float64) {
	DefaultMetrics.ScoreComputeLatency.WithLabelValues(attempt).Observe(seconds)
}

// RecordScoreIssued records a newly persisted score record.
func RecordScoreIssued(tier, source string, total int) {
	DefaultMetrics.TiersIssued.WithLabelValues(tier, source).Inc()
	DefaultMetrics.ScoreTotals.Observe(float64(total))
}

// RecordDegradedDataset increments the degradation counter for a dataset.
func RecordDegradedDataset(dataset string) {
	DefaultMetrics.DatasetDegradations.WithLabelValues(dataset).Inc()
}

// RecordCacheLookup records a signal cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.SignalCacheLookups.WithLabelValues(result).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest records a served API request.
func RecordHTTPRequest(route string, code int) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
