// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

// uploadField is the multipart field carrying the backup file.
const uploadField = "backup"

// multipartOverhead is allowed on top of the file limit for part headers
// and boundaries.
const multipartOverhead = 1 << 20

// spoolUpload streams the "backup" multipart part into a spool file in the
// store's uploads directory. The caller hands the result to the service,
// which removes the file on every path. On error the spool file is already
// removed.
func (h *Handler) spoolUpload(w http.ResponseWriter, r *http.Request) (*backup.Upload, error) {
	store := h.svc.Store()
	limit := store.MaxUploadSize()
	tooLarge := &backup.Error{
		Kind:    backup.KindInvalidFile,
		Message: "File size exceeds limit of " + backup.FormatLimit(limit),
	}

	if r.ContentLength > limit+multipartOverhead {
		return nil, tooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &backup.Error{Kind: backup.KindNoFileProvided, Message: backup.ErrNoFileProvided.Message, Err: err}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, backup.ErrNoFileProvided
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, tooLarge
			}
			return nil, &backup.Error{Kind: backup.KindNoFileProvided, Message: backup.ErrNoFileProvided.Message, Err: err}
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		up, err := h.spoolPart(store, part, limit)
		_ = part.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, tooLarge
			}
			return nil, err
		}
		return up, nil
	}
}

// spoolPart copies one part into a new upload file, enforcing the size
// limit while copying.
func (h *Handler) spoolPart(store *backup.Store, part *multipart.Part, limit int64) (*backup.Upload, error) {
	f, err := store.CreateUpload()
	if err != nil {
		return nil, &backup.Error{Kind: backup.KindDirectoryInitFailed, Message: backup.ErrDirectoryInitFailed.Message, Err: err}
	}
	path := f.Name()

	n, copyErr := io.Copy(f, io.LimitReader(part, limit+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		store.RemoveUpload(path)
		return nil, &backup.Error{Kind: backup.KindInvalidFile, Message: "Failed to read uploaded file", Err: copyErr}
	case closeErr != nil:
		store.RemoveUpload(path)
		return nil, &backup.Error{Kind: backup.KindDirectoryInitFailed, Message: backup.ErrDirectoryInitFailed.Message, Err: closeErr}
	case n > limit:
		store.RemoveUpload(path)
		return nil, &backup.Error{Kind: backup.KindInvalidFile, Message: "File size exceeds limit of " + backup.FormatLimit(limit)}
	case n == 0:
		store.RemoveUpload(path)
		return nil, backup.ErrNoFileProvided
	}

	logging.Debug().Str("file", sanitizeLogValue(part.FileName())).Int64("size", n).Msg("Spooled backup upload")
	return &backup.Upload{
		FileName:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Size:        n,
		Path:        path,
	}, nil
}
