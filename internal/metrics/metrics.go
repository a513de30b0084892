// Package metrics defines Prometheus metrics for the lead-intake server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadintake_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadintake_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadintake_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadintake_rate_limited_total",
			Help: "Requests refused by a rate limiter",
		},
		[]string{"limiter"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadintake_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	BuyerMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadintake_buyer_mutations_total",
			Help: "Persisted buyer mutations by action",
		},
		[]string{"action"},
	)

	VersionConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadintake_version_conflicts_total",
			Help: "Updates rejected because the record changed since it was read",
		},
	)

	ImportRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadintake_import_rows_total",
			Help: "CSV import rows by outcome (imported, invalid)",
		},
		[]string{"outcome"},
	)

	ExportRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadintake_export_rows_total",
			Help: "CSV export data rows written",
		},
	)

	LoginLockoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadintake_login_lockouts_total",
			Help: "Sign-in keys locked out after repeated failures",
		},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadintake_audit_queue_depth",
			Help: "Current audit queue depth",
		},
	)

	AuditDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadintake_audit_dropped_total",
			Help: "Audit entries dropped because the queue was full",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, RequestsInFlight, RateLimitedTotal, ErrorsTotal,
		BuyerMutationsTotal, VersionConflictsTotal, LoginLockoutsTotal,
		ImportRowsTotal, ExportRowsTotal,
		AuditQueueDepth, AuditDroppedTotal,
	)
}
