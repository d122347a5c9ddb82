// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Package api exposes the backup service over HTTP using the Chi router.

Routes:

	POST   /api/v1/backups                      create an archive
	GET    /api/v1/backups                      list archives and live counts
	GET    /api/v1/backups/status               status and recommendations
	GET    /api/v1/backups/history              backup audit events
	POST   /api/v1/backups/restore              restore (multipart field "backup")
	POST   /api/v1/backups/validate             dry-run validation of an upload
	GET    /api/v1/backups/{fileName}/download  stream an archive
	DELETE /api/v1/backups/{fileName}           delete an archive
	GET    /health                              liveness and datastore check
	GET    /metrics                             Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Backup error kinds
map to HTTP status codes in statusForKind; only the kind's caller-safe message
(and, for engine failures, the cause) reaches the body.

Restore uploads are streamed straight into the archive store's uploads
directory under an http.MaxBytesReader cap. The multipart form is never
buffered in memory or in the OS temp directory.
*/
package api
