// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package query provides SQL statement building utilities for the database package.
//
// All statements use numbered placeholders ($1, $2, ...), which both the
// DuckDB and pgx drivers accept, so callers never branch on dialect.
//
// # Insert statements
//
// InsertBuilder accumulates rows for a single table and renders one
// multi-row INSERT:
//
//	ib := query.NewInsertBuilder("settings", []string{"id", "key", "value"})
//	ib.AddRow("s1", "currency", "KES")
//	ib.AddRow("s2", "timezone", "Africa/Nairobi")
//	stmt, args := ib.Build()
//	// INSERT INTO "settings" ("id", "key", "value") VALUES ($1, $2, $3), ($4, $5, $6)
//
// Rows are appended in order and the argument slice is flattened row by row.
// Callers that insert large batches should split them with ChunkSize so a
// single statement stays within driver parameter limits.
//
// # Select statements
//
// Select renders a full-table read with a stable ordering:
//
//	stmt := query.Select("staff", []string{"id", "full_name"}, "id")
//	// SELECT "id", "full_name" FROM "staff" ORDER BY "id"
//
// Identifiers are always double-quoted. They come from the compiled-in schema,
// never from user input.
package query
