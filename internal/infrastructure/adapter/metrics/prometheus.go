package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
)

// PrometheusMetrics records ledger and HTTP metrics on a private registry
type PrometheusMetrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	replays           *prometheus.CounterVec
	payoutTransitions *prometheus.CounterVec
	payoutsInFlight   prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// NewPrometheusMetrics creates and registers every collector under namespace
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by outcome.",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"operation"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "idempotent_replays_total",
			Help:      "Operations answered from a stored idempotency record.",
		}, []string{"operation"}),
		payoutTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "transitions_total",
			Help:      "Payout requests entering each status.",
		}, []string{"status"}),
		payoutsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "in_flight",
			Help:      "Payout requests still holding reserved coins.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}

	m.registry.MustRegister(
		m.operations,
		m.operationDuration,
		m.replays,
		m.payoutTransitions,
		m.payoutsInFlight,
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// RegisterDB exports connection pool statistics for db
func (m *PrometheusMetrics) RegisterDB(db *sql.DB, name string) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Handler exposes the registry in the prometheus text format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records one ledger operation
func (m *PrometheusMetrics) ObserveOperation(operation, outcome string, duration time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveReplay records an idempotent replay
func (m *PrometheusMetrics) ObserveReplay(operation string) {
	m.replays.WithLabelValues(operation).Inc()
}

// ObservePayoutTransition records a payout entering status
func (m *PrometheusMetrics) ObservePayoutTransition(status string) {
	m.payoutTransitions.WithLabelValues(status).Inc()
}

// SetPayoutsInFlight sets the in-flight payout gauge
func (m *PrometheusMetrics) SetPayoutsInFlight(count int) {
	m.payoutsInFlight.Set(float64(count))
}

// HTTPStarted marks a request as in flight and returns the function that completes it.
// path should be the route template so label cardinality stays bounded.
func (m *PrometheusMetrics) HTTPStarted() func(method, path string, status int, duration time.Duration) {
	m.httpInFlight.Inc()
	return func(method, path string, status int, duration time.Duration) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	}
}

var _ coreport.Metrics = (*PrometheusMetrics)(nil)
