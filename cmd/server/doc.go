// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Command server runs the HRMS backup and restore API.

Startup order:

 1. Configuration: Koanf v2 (defaults, optional config.yaml, environment)
 2. Logging: zerolog
 3. Datastore: DuckDB or PostgreSQL, migrations applied
 4. Archive store directories, audit journal (BadgerDB), Casbin policy
 5. Off-site S3 mirror behind a circuit breaker, when OFFSITE_ENABLED=true
 6. Supervisor tree: audit event bus, scratch janitor, HTTP server

SIGINT or SIGTERM cancels the tree. The HTTP server drains in-flight
requests for up to 30 seconds, then the bus, journal and datastore close.

Common environment:

	DATABASE_URL        duckdb:///data/hrms.duckdb or postgres://...
	BACKUP_DIR          archive directory (default /data/backups)
	AUTH_MODE           jwt (default) or none
	JWT_SECRET          32+ characters, required for jwt mode
	AUTHZ_POLICY_PATH   optional policy.csv overriding the embedded policy
	OFFSITE_ENABLED     mirror archives to S3-compatible storage

A DuckDB file is opened exclusively; stop the server before pointing the
hrmsctl CLI at the same file.
*/
package main
