// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Package metrics provides Prometheus metrics for HRMS Vault.

Collectors are registered with promauto on the default registry and exposed
at /metrics by the API router:

	curl http://localhost:3857/metrics

# Available Metrics

API Metrics:
  - api_requests_total: requests by method, endpoint and status code
  - api_request_duration_seconds: request latency (histogram)
  - api_active_requests: in-flight requests
  - api_rate_limit_hits_total: rate limit rejections

Backup Metrics:
  - backup_operations_total: operations by operation and status
  - backup_operation_duration_seconds: operation latency (histogram)
  - backup_records_exported_total / backup_records_restored_total
  - backup_last_success_timestamp_seconds: per operation
  - backup_archives / backup_archive_bytes: archive directory gauges
  - backup_lock_waits_total: mutation lock outcomes
  - backup_scratch_files_removed_total

Resilience and Events:
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total: off-site mirror breaker
  - events_published_total, events_consumed_total: lifecycle event bus

# Usage

	start := time.Now()
	err := doWork()
	metrics.RecordBackupOperation("create", time.Since(start), err)
*/
package metrics
