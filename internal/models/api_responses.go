// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package models holds the wire types shared by the HTTP API and its
// middleware.
package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"backupId": "...", "fileName": "hrms-backup-2026-01-01T00-00-00-000Z.zip"},
//	  "metadata": {"timestamp": "2026-01-01T00:00:00Z", "request_id": "..."}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-01-01T00:00:00Z", "request_id": "..."},
//	  "error": {
//	    "code": "INVALID_FILENAME",
//	    "message": "Invalid filename"
//	  }
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for tracing.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Codes are the backup error kinds (INVALID_FILENAME, BACKUP_NOT_FOUND, ...)
// plus UNAUTHORIZED, VALIDATION_ERROR, RATE_LIMIT_EXCEEDED and
// INTERNAL_ERROR. Details carries the failing cause for server-side
// backup failures and the failing field for validation errors.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}, requestID string) *APIResponse {
	return &APIResponse{
		Status: StatusSuccess,
		Data:   data,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestID,
		},
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code, message string, details map[string]interface{}, requestID string) *APIResponse {
	return &APIResponse{
		Status: StatusError,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestID,
		},
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
