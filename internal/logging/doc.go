// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package logging provides the process-wide zerolog logger for HRMS Vault.
//
// The logger is global and configured once from main with Init. Call sites use
// the chained zerolog form and must terminate with Msg or Send:
//
//	logging.Info().Str("backup_id", id).Int("records", n).Msg("Backup created")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Scratch cleanup failed")
//
// Request-scoped fields (request_id, correlation_id) travel on the context and
// are attached by Ctx. Two bridges let third-party libraries write through the
// same logger:
//
//   - NewSlogLogger: log/slog front end, used by sutureslog for supervisor events
//   - NewWatermillLogger: watermill.LoggerAdapter, used by the event bus router
//
// Output is JSON by default; Format "console" switches to zerolog.ConsoleWriter
// for local development.
package logging
