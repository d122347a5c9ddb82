// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/models"
	"github.com/tomtom215/hrmsvault/internal/validation"
)

// API error codes not covered by backup error kinds.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeServiceDegraded   = "SERVICE_DEGRADED"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, models.NewSuccessResponse(data, logging.RequestIDFromContext(r.Context())))
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, status, models.NewErrorResponse(code, message, details, logging.RequestIDFromContext(r.Context())))
}

// respondValidationError sends a 400 VALIDATION_ERROR built from validator failures.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// respondBackupError maps a backup service error to its status and
// caller-safe message. Server-side failures are logged with their cause.
func respondBackupError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	kind := backup.KindOf(err)
	status := statusForKind(kind)

	var details map[string]interface{}
	if detail := backup.DetailOf(err); detail != "" {
		details = map[string]interface{}{"cause": detail}
	}

	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.
		Str("operation", operation).
		Str("code", kind.Code()).
		Str("error", sanitizeLogValue(err.Error())).
		Msg("Backup request failed")

	respondError(w, r, status, kind.Code(), backup.MessageOf(err), details)
}

// statusForKind returns the HTTP status for a backup error kind.
func statusForKind(kind backup.Kind) int {
	switch kind {
	case backup.KindInsufficientPermissions:
		return http.StatusForbidden
	case backup.KindInvalidFilename,
		backup.KindNoFileProvided,
		backup.KindInvalidFile,
		backup.KindInvalidBackupFile,
		backup.KindInvalidBackupStructure:
		return http.StatusBadRequest
	case backup.KindArchiveNotFound:
		return http.StatusNotFound
	case backup.KindOperationInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
