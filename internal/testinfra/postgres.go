// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

//go:build integration

package testinfra

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the server image used by integration tests.
const PostgresImage = "docker.io/postgres:17-alpine"

// PostgresContainer is a running PostgreSQL server for one test.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	URL       string
}

// StartPostgres launches PostgreSQL and registers its termination with
// t.Cleanup. The test is skipped when Docker is unavailable.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithDatabase("hrms_test"),
		postgres.WithUsername("hrms"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		CleanupContainer(t, context.Background(), ctr)
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get PostgreSQL connection string: %v", err)
	}

	return &PostgresContainer{Container: ctr, URL: url}
}
