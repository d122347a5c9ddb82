// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

//go:build integration

// Package testinfra provides testcontainers-based infrastructure for
// integration tests.
//
// Integration tests run against a real PostgreSQL server to prove the
// storage layer's SQL works on the server datastore as well as on the
// embedded DuckDB used by unit tests.
//
// # Running
//
//	go test -tags integration ./...
//
// Tests skip themselves when Docker is unavailable (SkipIfNoDocker).
//
// # PostgreSQL
//
//	pg := testinfra.StartPostgres(t)
//	db, err := database.New(&config.DatabaseConfig{URL: pg.URL, MaxOpenConns: 4})
package testinfra
