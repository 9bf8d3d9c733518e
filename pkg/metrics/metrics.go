package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencall_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AuditEntriesWritten counts persisted audit log entries by action type.
	AuditEntriesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencall_audit_entries_total",
			Help: "Total number of audit log entries written",
		},
		[]string{"action_type"},
	)

	// DiagnosticRuns counts diagnostic operations (s3_test, imap_test, ...) and their outcome.
	DiagnosticRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencall_diagnostic_runs_total",
			Help: "Total number of diagnostic operations executed",
		},
		[]string{"operation", "result"},
	)

	// EmailsSent counts outbound emails by template.
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opencall_emails_sent_total",
			Help: "Total number of outbound emails",
		},
		[]string{"template"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opencall_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
