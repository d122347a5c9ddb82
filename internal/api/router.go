// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/hrmsvault/internal/middleware"
)

// Router wires handlers and middleware into a Chi mux.
type Router struct {
	handler       *Handler
	authenticate  func(http.Handler) http.Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. authenticate is the authentication middleware
// applied to every backup route.
func NewRouter(handler *Handler, authenticate func(http.Handler) http.Handler, mw *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		authenticate:  authenticate,
		chiMiddleware: mw,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/backups", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.authenticate)

		r.Post("/", router.handler.CreateBackup)
		r.Get("/", router.handler.ListBackups)
		r.Get("/status", router.handler.BackupStatus)
		r.Get("/history", router.handler.BackupHistory)
		r.Post("/restore", router.handler.RestoreBackup)
		r.Post("/validate", router.handler.ValidateBackup)
		r.Get("/{fileName}/download", router.handler.DownloadBackup)
		r.Delete("/{fileName}", router.handler.DeleteBackup)
	})

	return r
}
