// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type historyRequest struct {
	Limit    int    `validate:"min=0,max=1000"`
	FileName string `validate:"omitempty,archivename"`
	Type     string `validate:"omitempty,backupevent"`
	Outcome  string `validate:"omitempty,oneof=success failure"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   historyRequest
		wantTag string
	}{
		{name: "zero value", input: historyRequest{}},
		{name: "all set", input: historyRequest{Limit: 1000, FileName: "hrms-backup-1.zip", Type: "backup.restored", Outcome: "success"}},
		{name: "limit too high", input: historyRequest{Limit: 1001}, wantTag: "max"},
		{name: "negative limit", input: historyRequest{Limit: -1}, wantTag: "min"},
		{name: "traversal", input: historyRequest{FileName: "../etc/passwd"}, wantTag: "archivename"},
		{name: "separator", input: historyRequest{FileName: `a\b.zip`}, wantTag: "archivename"},
		{name: "unknown event", input: historyRequest{Type: "employee.created"}, wantTag: "backupevent"},
		{name: "bad outcome", input: historyRequest{Outcome: "maybe"}, wantTag: "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want %s failure", tt.wantTag)
			}
			if got := err.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestToAPIError_Single(t *testing.T) {
	err := ValidateStruct(&historyRequest{FileName: "../x.zip"})
	if err == nil {
		t.Fatal("expected validation failure")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != CodeValidationError {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "FileName must be a file name without path components" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "FileName" || apiErr.Details["value"] != "../x.zip" {
		t.Errorf("Details = %v", apiErr.Details)
	}
}

func TestToAPIError_Multiple(t *testing.T) {
	err := ValidateStruct(&historyRequest{Limit: 5000, Outcome: "maybe"})
	if err == nil {
		t.Fatal("expected validation failure")
	}

	apiErr := err.ToAPIError()
	if !strings.Contains(apiErr.Message, "Limit: Limit must be at most 1000") {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if !strings.Contains(apiErr.Message, "Outcome: Outcome must be one of: success failure") {
		t.Errorf("Message = %q", apiErr.Message)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("Details[fields] = %v", apiErr.Details["fields"])
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	ve := &RequestValidationError{}
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
	if ve.ToAPIError().Message != "Validation failed" {
		t.Errorf("ToAPIError().Message = %q", ve.ToAPIError().Message)
	}
}
