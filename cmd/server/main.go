// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/hrmsvault/internal/api"
	"github.com/tomtom215/hrmsvault/internal/app"
	"github.com/tomtom215/hrmsvault/internal/auth"
	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/metrics"
	"github.com/tomtom215/hrmsvault/internal/supervisor"
	"github.com/tomtom215/hrmsvault/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("backup_dir", cfg.Backup.Dir).
		Bool("offsite", cfg.Offsite.Enabled).
		Msg("Starting HRMS Vault")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.Build(ctx, cfg, app.Options{UseEventBus: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing resources")
		}
	}()

	authenticate, err := newAuthenticator(&cfg.Security)
	if err != nil {
		return err
	}

	handler := api.NewHandler(a.Service, a.DB, version)
	router := api.NewRouter(handler, authenticate, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)))

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		// Restore bodies and archive downloads can be large.
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	tree.AddBackgroundService(a.Bus)
	tree.AddBackgroundService(services.NewScratchJanitorService(a.Store, cfg.Backup.ScratchMaxAge, 0).
		WithJournalRetention(a.Journal, cfg.Audit.Retention))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, shutdownTimeout))

	logging.Info().Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // best effort report
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}

// newAuthenticator builds the authentication middleware for the configured
// mode.
func newAuthenticator(sec *config.SecurityConfig) (func(http.Handler) http.Handler, error) {
	var jwtManager *auth.JWTManager
	if sec.AuthRequired() {
		m, err := auth.NewJWTManager(sec)
		if err != nil {
			return nil, fmt.Errorf("initialize JWT: %w", err)
		}
		jwtManager = m
	} else {
		logging.Warn().Str("default_role", sec.DefaultRole).Msg("Authentication disabled (AUTH_MODE=none)")
	}
	return auth.NewMiddleware(sec, jwtManager).Authenticate, nil
}
