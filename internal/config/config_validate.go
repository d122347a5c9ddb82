// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate checks the merged configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateOffsite(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.Contains(c.Database.URL, "://") {
		u, err := url.Parse(c.Database.URL)
		if err != nil {
			return fmt.Errorf("DATABASE_URL failed to parse: %w", err)
		}
		switch u.Scheme {
		case "duckdb", "postgres", "postgresql":
		default:
			return fmt.Errorf("DATABASE_URL scheme must be duckdb, postgres or postgresql, got: %s", u.Scheme)
		}
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", c.Database.MaxOpenConns)
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.Dir == "" {
		return fmt.Errorf("BACKUP_DIR is required")
	}
	if c.Backup.ScratchDir == "" {
		return fmt.Errorf("BACKUP_SCRATCH_DIR is required")
	}
	if samePath(c.Backup.Dir, c.Backup.ScratchDir) {
		return fmt.Errorf("BACKUP_SCRATCH_DIR must differ from BACKUP_DIR, both resolve to %s", filepath.Clean(c.Backup.Dir))
	}
	if c.Backup.MaxUploadSize <= 0 {
		return fmt.Errorf("BACKUP_MAX_UPLOAD_SIZE must be positive, got %d", c.Backup.MaxUploadSize)
	}
	if c.Backup.ScratchMaxAge <= 0 {
		return fmt.Errorf("BACKUP_SCRATCH_MAX_AGE must be positive, got %s", c.Backup.ScratchMaxAge)
	}
	if c.Backup.LockTimeout <= 0 {
		return fmt.Errorf("BACKUP_LOCK_TIMEOUT must be positive, got %s", c.Backup.LockTimeout)
	}
	if c.Backup.StaleAfter <= 0 {
		return fmt.Errorf("BACKUP_STALE_AFTER must be positive, got %s", c.Backup.StaleAfter)
	}
	if c.Backup.LargeDatasetThreshold < 0 {
		return fmt.Errorf("BACKUP_LARGE_DATASET_THRESHOLD must not be negative, got %d", c.Backup.LargeDatasetThreshold)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case AuthModeJWT:
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
		}
	case AuthModeNone:
		if c.Security.DefaultRole == "" {
			return fmt.Errorf("AUTH_DEFAULT_ROLE is required when AUTH_MODE=none")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be jwt or none, got: %s", c.Security.AuthMode)
	}
	if c.Security.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative, got %d", c.Security.RateLimitRequests)
	}
	if c.Security.RateLimitRequests > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateOffsite() error {
	if !c.Offsite.Enabled {
		return nil
	}
	if c.Offsite.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when OFFSITE_ENABLED=true")
	}
	if c.Offsite.Region == "" {
		return fmt.Errorf("S3_REGION is required when OFFSITE_ENABLED=true")
	}
	if c.Offsite.Endpoint != "" {
		u, err := url.Parse(c.Offsite.Endpoint)
		if err != nil {
			return fmt.Errorf("S3_ENDPOINT failed to parse URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("S3_ENDPOINT scheme must be http or https, got: %s", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("S3_ENDPOINT host is required")
		}
	}
	if (c.Offsite.AccessKeyID == "") != (c.Offsite.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.Retention < 0 {
		return fmt.Errorf("AUDIT_RETENTION must not be negative, got %s", c.Audit.Retention)
	}
	if !c.Audit.InMemory && c.Audit.Path == "" {
		return fmt.Errorf("AUDIT_PATH is required unless AUDIT_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "off", "disabled", "":
	default:
		return fmt.Errorf("LOG_LEVEL is invalid: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}

// samePath reports whether a and b resolve to the same location.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
