// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

// DB wraps the HRMS datastore connection pool.
type DB struct {
	conn       *sql.DB
	driver     string
	descriptor string
}

// New opens the database named by cfg.URL, configures the pool and applies
// pending schema migrations.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	driver, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if driver == DriverDuckDB && dsn != "" {
		// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:       conn,
		driver:     driver,
		descriptor: MaskDSN(cfg.URL),
	}
	db.configureConnectionPool(cfg.MaxOpenConns)

	ctx, cancel := schemaContext()
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database %s: %w", db.descriptor, err)
	}

	if err := db.runMigrations(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", driver).
		Str("database", db.descriptor).
		Msg("Database ready")

	return db, nil
}

func (db *DB) configureConnectionPool(maxOpen int) {
	if maxOpen <= 0 {
		maxOpen = 4
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the database/sql driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

// Descriptor returns the connection descriptor with credentials masked.
func (db *DB) Descriptor() string {
	return db.descriptor
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Failed to rollback transaction")
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
