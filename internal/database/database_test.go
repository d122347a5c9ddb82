// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/hrmsvault/internal/config"
)

// testDBSemaphore serializes DuckDB usage across tests. Concurrent CGO calls
// from many in-memory databases can hang under CI resource pressure, so the
// semaphore is held for the whole test and released by t.Cleanup.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates a migrated in-memory DuckDB database.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(&config.DatabaseConfig{URL: ":memory:", MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

func mustTable(t *testing.T, name string) Table {
	t.Helper()
	tbl, ok := TableByName(name)
	if !ok {
		t.Fatalf("table %s not in schema", name)
	}
	return tbl
}

func TestNewAppliesMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	version, err := db.GetCurrentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion() error = %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}

	// Re-running is a no-op
	if err := db.runMigrations(ctx); err != nil {
		t.Fatalf("runMigrations() second run error = %v", err)
	}
	history, err := db.GetMigrationHistory(ctx)
	if err != nil {
		t.Fatalf("GetMigrationHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].Name != "initial_schema" {
		t.Errorf("history = %+v, want one initial_schema entry", history)
	}

	if len(Tables) != 13 {
		t.Errorf("Tables has %d entries, want 13", len(Tables))
	}
	for _, tbl := range Tables {
		n, err := Count(ctx, db.conn, tbl)
		if err != nil {
			t.Fatalf("Count(%s) error = %v", tbl.Name, err)
		}
		if n != 0 {
			t.Errorf("table %s has %d rows, want 0", tbl.Name, n)
		}
	}
}

func TestDescriptorIsMasked(t *testing.T) {
	db := setupTestDB(t)

	if db.Driver() != DriverDuckDB {
		t.Errorf("Driver() = %q, want %q", db.Driver(), DriverDuckDB)
	}
	if db.Descriptor() != ":memory:" {
		t.Errorf("Descriptor() = %q, want :memory:", db.Descriptor())
	}
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	settings := mustTable(t, TableSettings)

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		return InsertOne(ctx, tx, settings, Record{"id": "s1", "key": "currency", "value": "KES"})
	})
	if err != nil {
		t.Fatalf("WithTx() commit path error = %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := DeleteAll(ctx, tx, settings); err != nil {
			return err
		}
		if err := InsertOne(ctx, tx, settings, Record{"id": "s2", "key": "timezone"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	recs, err := ListAll(ctx, db.Conn(), settings)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(recs) != 1 || recs[0]["id"] != "s1" {
		t.Errorf("after rollback got %v, want only s1", recs)
	}
}

func TestWithTxRequiredColumnViolation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	users := mustTable(t, TableUsers)

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		// created_at is NOT NULL
		return InsertOne(ctx, tx, users, Record{
			"id": "u1", "email": "a@example.com", "name": "A", "role": "staff", "isActive": true,
		})
	})
	if err == nil {
		t.Fatal("expected NOT NULL violation, got nil")
	}

	n, err := Count(ctx, db.Conn(), users)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("users count = %d, want 0", n)
	}
}

func TestDeleteThenReinsertSameKeyInTx(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	cats := mustTable(t, TableCategories)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := Record{"id": "c1", "name": "Engineering", "createdAt": created}
	if err := InsertOne(ctx, db.Conn(), cats, rec); err != nil {
		t.Fatalf("InsertOne() error = %v", err)
	}

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := DeleteAll(ctx, tx, cats); err != nil {
			return err
		}
		return InsertOne(ctx, tx, cats, Record{"id": "c1", "name": "Eng", "createdAt": created})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	recs, err := ListAll(ctx, db.Conn(), cats)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(recs) != 1 || recs[0]["name"] != "Eng" {
		t.Errorf("got %v, want renamed c1", recs)
	}
}

func TestNewRejectsUnsupportedURL(t *testing.T) {
	if _, err := New(&config.DatabaseConfig{URL: "mysql://root@db/hrms"}); err == nil {
		t.Fatal("expected error for mysql url")
	}
}
