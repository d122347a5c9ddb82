// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/backups", "200"))

	RecordAPIRequest("GET", "/api/v1/backups", "200", 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/backups", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestRecordBackupOperation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("disk full"), "failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := BackupOperationsTotal.WithLabelValues("create", tt.wantStatus)
			before := testutil.ToFloat64(counter)

			RecordBackupOperation("create", time.Second, tt.err)

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("backup_operations_total{status=%s} delta = %v, want 1", tt.wantStatus, got)
			}
		})
	}

	if ts := testutil.ToFloat64(BackupLastSuccess.WithLabelValues("create")); ts == 0 {
		t.Error("backup_last_success_timestamp_seconds not set after success")
	}
}

func TestUpdateArchiveGauges(t *testing.T) {
	UpdateArchiveGauges(3, 4096)

	if got := testutil.ToFloat64(BackupArchives); got != 3 {
		t.Errorf("backup_archives = %v, want 3", got)
	}
	if got := testutil.ToFloat64(BackupArchiveBytes); got != 4096 {
		t.Errorf("backup_archive_bytes = %v, want 4096", got)
	}
}

func TestRecordLockWait(t *testing.T) {
	timeouts := BackupLockWaits.WithLabelValues("restore", "timeout")
	before := testutil.ToFloat64(timeouts)

	RecordLockWait("restore", false)
	RecordLockWait("restore", true)

	if got := testutil.ToFloat64(timeouts) - before; got != 1 {
		t.Errorf("timeout delta = %v, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active after dec = %v, want %v", got, before)
	}
}
