// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package database provides the HRMS storage access layer used by the backup
// and restore engines.
//
// # Overview
//
// The package owns the thirteen-table HRMS schema and exposes generic,
// table-driven operations over it:
//   - ListAll: read every row of a table as a Record keyed by camelCase field
//   - Count: live row count
//   - InsertOne / InsertMany: parameterized single and chunked multi-row inserts
//   - DeleteAll: unconditional table wipe
//   - DB.WithTx: one atomic multi-statement transaction
//
// All operations accept a Querier, so the same call runs against the pool or
// inside a transaction.
//
// # Drivers
//
// The configured URL selects the driver:
//   - duckdb:// URLs, bare paths and :memory: use DuckDB (github.com/duckdb/duckdb-go/v2)
//   - postgres:// and postgresql:// URLs use pgx (github.com/jackc/pgx/v5/stdlib)
//
// SQL is kept to the subset both engines share: numbered placeholders,
// TEXT/BIGINT/DOUBLE PRECISION/BOOLEAN/TIMESTAMP columns and JSON stored as TEXT.
//
// # Schema Migrations
//
// New applies versioned migrations tracked in schema_migrations. Migrations
// are append-only.
//
// # Credentials
//
// MaskDSN redacts passwords from connection descriptors. The masked form is
// the only one that leaves this package (DB.Descriptor).
package database
