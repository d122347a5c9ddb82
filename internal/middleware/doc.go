// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Package middleware provides the infrastructure HTTP middleware for the backup
API: request ids, Prometheus instrumentation and access logging.

All middleware has the chi signature func(http.Handler) http.Handler.

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)         // X-Request-ID, logging context
	r.Use(middleware.AccessLog)         // one zerolog line per request
	r.Use(middleware.PrometheusMetrics) // hrms_api_* collectors
	r.Use(cors.Handler(...))
	r.Use(httprate.Limit(...))
	r.Group(func(r chi.Router) {
	    r.Use(authMiddleware.Authenticate)
	    ...
	})

Metrics are labelled with the chi route pattern rather than the raw path, so
archive file names never become label values.
*/
package middleware
