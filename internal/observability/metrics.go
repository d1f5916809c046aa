package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	auditEntriesTotal      *prometheus.CounterVec
	auditFailuresTotal     prometheus.Counter
	permissionDenialsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskboard_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskboard_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskboard_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		auditEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskboard_audit_entries_total",
			Help: "Audit changelog entries recorded, by action type.",
		}, []string{"action"})

		auditFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskboard_audit_failures_total",
			Help: "Audit changelog writes that failed after a successful mutation.",
		})

		permissionDenialsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskboard_permission_denials_total",
			Help: "Permission checks that ended in a denial, by action.",
		}, []string{"action"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			auditEntriesTotal, auditFailuresTotal, permissionDenialsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AuditEntries exposes the counter for recorded audit entries.
func AuditEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return auditEntriesTotal
}

// AuditFailures exposes the counter for failed audit writes.
func AuditFailures() prometheus.Counter {
	RegisterMetrics()
	return auditFailuresTotal
}

// PermissionDenials exposes the counter for denied permission checks.
func PermissionDenials() *prometheus.CounterVec {
	RegisterMetrics()
	return permissionDenialsTotal
}
