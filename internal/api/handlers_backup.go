// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/hrmsvault/internal/audit"
	"github.com/tomtom215/hrmsvault/internal/auth"
	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/validation"
)

// defaultHistoryLimit applies when the history request sets no limit.
const defaultHistoryLimit = 50

// Pinger reports datastore reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the backup API.
type Handler struct {
	svc       *backup.Service
	db        Pinger
	version   string
	startTime time.Time
}

// NewHandler creates a handler. db may be nil, in which case health only
// reports the process.
func NewHandler(svc *backup.Service, db Pinger, version string) *Handler {
	return &Handler{
		svc:       svc,
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// principal returns the caller set by the auth middleware. A request that
// bypassed authentication gets an empty principal, which every backup
// operation rejects.
func principal(r *http.Request) backup.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

// fileNameParam returns the decoded {fileName} route parameter.
func fileNameParam(r *http.Request) string {
	raw := chi.URLParam(r, "fileName")
	name, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return name
}

// CreateBackup exports the datastore into a new archive.
// POST /api/v1/backups
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Create(r.Context(), principal(r))
	if err != nil {
		respondBackupError(w, r, backup.OpCreate, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, result)
}

// ListBackups lists stored archives with live datastore counts.
// GET /api/v1/backups
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.List(r.Context(), principal(r))
	if err != nil {
		respondBackupError(w, r, "list", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// BackupStatus summarizes archives, counts and recommendations.
// GET /api/v1/backups/status
func (h *Handler) BackupStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Status(r.Context(), principal(r))
	if err != nil {
		respondBackupError(w, r, "status", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// HistoryRequest holds the history query parameters.
type HistoryRequest struct {
	Limit    int    `validate:"min=0,max=1000"`
	Offset   int    `validate:"min=0"`
	Type     string `validate:"omitempty,backupevent"`
	Outcome  string `validate:"omitempty,oneof=success failure"`
	FileName string `validate:"omitempty,archivename"`
}

// parseHistoryRequest reads query parameters. Non-numeric limit or offset
// become -1 so the validator rejects them.
func parseHistoryRequest(r *http.Request) HistoryRequest {
	q := r.URL.Query()
	intParam := func(key string) int {
		s := q.Get(key)
		if s == "" {
			return 0
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return -1
		}
		return v
	}
	return HistoryRequest{
		Limit:    intParam("limit"),
		Offset:   intParam("offset"),
		Type:     q.Get("type"),
		Outcome:  q.Get("outcome"),
		FileName: q.Get("file_name"),
	}
}

// filter converts the request to an audit query.
func (req HistoryRequest) filter() audit.QueryFilter {
	f := audit.QueryFilter{
		Limit:      req.Limit,
		Offset:     req.Offset,
		TargetName: req.FileName,
	}
	if f.Limit == 0 {
		f.Limit = defaultHistoryLimit
	}
	if req.Type != "" {
		f.Types = []audit.EventType{audit.EventType(req.Type)}
	}
	if req.Outcome != "" {
		f.Outcomes = []audit.Outcome{audit.Outcome(req.Outcome)}
	}
	return f
}

// BackupHistory lists backup audit events, newest first.
// GET /api/v1/backups/history?limit=&offset=&type=&outcome=&file_name=
func (h *Handler) BackupHistory(w http.ResponseWriter, r *http.Request) {
	// Authorize before validating so unprivileged callers learn nothing.
	if err := h.svc.Authorize(principal(r)); err != nil {
		respondBackupError(w, r, "history", err)
		return
	}

	req := parseHistoryRequest(r)
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	filter := req.filter()
	events, err := h.svc.History(r.Context(), principal(r), filter)
	if err != nil {
		respondBackupError(w, r, "history", err)
		return
	}
	total, err := h.svc.HistoryTotal(r.Context(), principal(r), filter)
	if err != nil {
		respondBackupError(w, r, "history", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// RestoreBackup replaces the datastore with an uploaded snapshot.
// POST /api/v1/backups/restore (multipart field "backup")
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := h.svc.Authorize(p); err != nil {
		respondBackupError(w, r, backup.OpRestore, err)
		return
	}

	up, err := h.spoolUpload(w, r)
	if err != nil {
		respondBackupError(w, r, backup.OpRestore, err)
		return
	}

	result, err := h.svc.Restore(r.Context(), p, up)
	if err != nil {
		respondBackupError(w, r, backup.OpRestore, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// ValidateBackup checks an upload without restoring it.
// POST /api/v1/backups/validate (multipart field "backup")
func (h *Handler) ValidateBackup(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if err := h.svc.Authorize(p); err != nil {
		respondBackupError(w, r, "validate", err)
		return
	}

	up, err := h.spoolUpload(w, r)
	if err != nil {
		respondBackupError(w, r, "validate", err)
		return
	}

	result, err := h.svc.Check(r.Context(), p, up)
	if err != nil {
		respondBackupError(w, r, "validate", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// DownloadBackup streams an archive.
// GET /api/v1/backups/{fileName}/download
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	name := fileNameParam(r)
	f, entry, err := h.svc.Open(r.Context(), principal(r), name)
	if err != nil {
		respondBackupError(w, r, "download", err)
		return
	}
	defer f.Close() //nolint:errcheck // read-only

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": entry.FileName}))
	w.Header().Set("Cache-Control", "no-store")

	logging.Ctx(r.Context()).Info().Str("file", entry.FileName).Int64("size", entry.Size).Msg("Backup download started")
	http.ServeContent(w, r, entry.FileName, entry.ModifiedAt, f)
}

// DeleteBackup removes an archive.
// DELETE /api/v1/backups/{fileName}
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	name := fileNameParam(r)
	if err := h.svc.Delete(r.Context(), principal(r), name); err != nil {
		respondBackupError(w, r, backup.OpDelete, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{
		"fileName": name,
		"message":  fmt.Sprintf("Backup %s deleted successfully", name),
	})
}
