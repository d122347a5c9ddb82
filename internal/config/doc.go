// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
Package config provides centralized configuration management for HRMS Vault.

Configuration is layered with Koanf v2:
  - Built-in defaults (defaultConfig)
  - Optional YAML file (CONFIG_PATH or one of DefaultConfigPaths)
  - Environment variables (highest priority, see envTransformFunc)

# Configuration Structure

  - ServerConfig: HTTP listener settings
  - DatabaseConfig: HRMS database URL (duckdb:// or postgres://)
  - BackupConfig: archive and scratch directories, upload limits, lock timeout
  - SecurityConfig: authentication mode, JWT secret, CORS, rate limiting
  - OffsiteConfig: optional S3-compatible mirror for created archives
  - AuditConfig: BadgerDB journal for backup lifecycle events
  - LoggingConfig: zerolog level, format, and caller annotation

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Backup.Dir)

Load validates the merged configuration before returning it, so callers can
rely on every field being usable.
*/
package config
