package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds all Prometheus metrics for Docshelf.
// Uses a custom registry — no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// Storage metrics. Scoped queries carry the tenant filter; unscoped
	// queries are the explicit admin bypass and get their own counter so a
	// dashboard can watch how often the bypass is exercised.
	StorageQueriesTotal         *prometheus.CounterVec
	StorageUnscopedQueriesTotal *prometheus.CounterVec

	// StorageFailClosedTotal counts operations rejected or emptied because
	// no tenant was bound. A nonzero rate usually means a caller forgot the
	// tenant middleware.
	StorageFailClosedTotal *prometheus.CounterVec

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Event stream metrics.
	EventSubscribers prometheus.Gauge
	EventsPublished  *prometheus.CounterVec

	// Maintenance metrics.
	MaintenanceRunsTotal *prometheus.CounterVec

	// System metrics.
	ActiveRequests prometheus.Gauge
}

// NewMetricsCollector creates a MetricsCollector with all metrics registered
// on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		StorageQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "storage",
			Name:      "queries_total",
			Help:      "Total tenant-scoped storage operations.",
		}, []string{"table", "op", "outcome"}),

		StorageUnscopedQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "storage",
			Name:      "unscoped_queries_total",
			Help:      "Total storage operations run through the admin bypass.",
		}, []string{"table", "op"}),

		StorageFailClosedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "storage",
			Name:      "fail_closed_total",
			Help:      "Operations that failed closed because no tenant was bound.",
		}, []string{"table", "op"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docshelf",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		EventSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docshelf",
			Subsystem: "events",
			Name:      "subscribers",
			Help:      "Number of connected event stream subscribers.",
		}),

		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total events published to tenant streams.",
		}, []string{"type"}),

		MaintenanceRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docshelf",
			Subsystem: "maintenance",
			Name:      "runs_total",
			Help:      "Total maintenance job runs.",
		}, []string{"job", "status"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docshelf",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),
	}

	// Register all collectors.
	reg.MustRegister(
		m.StorageQueriesTotal,
		m.StorageUnscopedQueriesTotal,
		m.StorageFailClosedTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EventSubscribers,
		m.EventsPublished,
		m.MaintenanceRunsTotal,
		m.ActiveRequests,
	)

	return m
}

// RecordQuery implements the storage QueryMetrics interface.
func (m *MetricsCollector) RecordQuery(table, op, outcome string) {
	if m == nil {
		return
	}
	m.StorageQueriesTotal.WithLabelValues(table, op, outcome).Inc()
}

// RecordUnscopedQuery implements the storage QueryMetrics interface.
func (m *MetricsCollector) RecordUnscopedQuery(table, op string) {
	if m == nil {
		return
	}
	m.StorageUnscopedQueriesTotal.WithLabelValues(table, op).Inc()
}

// RecordFailClosed implements the storage QueryMetrics interface.
func (m *MetricsCollector) RecordFailClosed(table, op string) {
	if m == nil {
		return
	}
	m.StorageFailClosedTotal.WithLabelValues(table, op).Inc()
}
