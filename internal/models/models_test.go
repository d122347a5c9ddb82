// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]int{"backupCount": 2}, "req-1")

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(body)
	for _, want := range []string{`"status":"success"`, `"backupCount":2`, `"request_id":"req-1"`} {
		if !strings.Contains(s, want) {
			t.Errorf("body %s missing %s", s, want)
		}
	}
	if strings.Contains(s, `"error"`) {
		t.Errorf("success body carries error: %s", s)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("IMPORT_FAILED", "Failed to import data", map[string]interface{}{"cause": "constraint"}, "")

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(body)
	for _, want := range []string{`"status":"error"`, `"data":null`, `"code":"IMPORT_FAILED"`, `"cause":"constraint"`} {
		if !strings.Contains(s, want) {
			t.Errorf("body %s missing %s", s, want)
		}
	}
	if strings.Contains(s, "request_id") {
		t.Errorf("empty request id should be omitted: %s", s)
	}
	if resp.Metadata.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}
