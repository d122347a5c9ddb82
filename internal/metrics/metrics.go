// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Backup Operation Metrics
	BackupOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_operations_total",
			Help: "Total number of backup operations by operation and outcome",
		},
		[]string{"operation", "status"}, // operation: create, restore, delete, validate; status: success, failure
	)

	BackupOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_operation_duration_seconds",
			Help:    "Duration of backup operations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)

	BackupRecordsExported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_records_exported_total",
			Help: "Total number of records written into snapshots",
		},
	)

	BackupRecordsRestored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_records_restored_total",
			Help: "Total number of records recreated by restores",
		},
	)

	BackupLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backup_last_success_timestamp_seconds",
			Help: "Unix time of the last successful operation",
		},
		[]string{"operation"},
	)

	BackupArchives = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_archives",
			Help: "Current number of archives in the archive directory",
		},
	)

	BackupArchiveBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_archive_bytes",
			Help: "Total size of archives in the archive directory",
		},
	)

	BackupLockWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_lock_waits_total",
			Help: "Mutation lock acquisitions by outcome",
		},
		[]string{"operation", "result"}, // result: acquired, timeout
	)

	ScratchFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_scratch_files_removed_total",
			Help: "Total number of stale scratch files removed",
		},
	)

	AuditEventsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_audit_events_pruned_total",
			Help: "Total number of audit journal events removed by retention",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of backup lifecycle events published",
		},
		[]string{"type"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of events consumed by outcome",
		},
		[]string{"result"}, // result: "stored", "failed"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBackupOperation records the outcome and duration of a backup operation.
func RecordBackupOperation(operation string, duration time.Duration, err error) {
	BackupOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		BackupOperationsTotal.WithLabelValues(operation, "failure").Inc()
		return
	}
	BackupOperationsTotal.WithLabelValues(operation, "success").Inc()
	BackupLastSuccess.WithLabelValues(operation).Set(float64(time.Now().Unix()))
}

// UpdateArchiveGauges sets the archive count and total size gauges.
func UpdateArchiveGauges(count int, totalBytes int64) {
	BackupArchives.Set(float64(count))
	BackupArchiveBytes.Set(float64(totalBytes))
}

// RecordLockWait records a mutation lock acquisition attempt.
func RecordLockWait(operation string, acquired bool) {
	result := "acquired"
	if !acquired {
		result = "timeout"
	}
	BackupLockWaits.WithLabelValues(operation, result).Inc()
}
