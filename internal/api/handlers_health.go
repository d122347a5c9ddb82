// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/hrmsvault/internal/logging"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health reports process liveness and datastore reachability. It does not
// require authentication.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		Database:      "unconfigured",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check: datastore unreachable")
			respondError(w, r, http.StatusServiceUnavailable, CodeServiceDegraded, "Datastore unreachable", map[string]interface{}{
				"version":        h.version,
				"uptime_seconds": status.UptimeSeconds,
			})
			return
		}
		status.Database = "connected"
	}

	respondSuccess(w, r, http.StatusOK, status)
}
