// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package config

import "time"

// Config holds all application configuration loaded from defaults, an
// optional config file and environment variables.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Backup   BackupConfig   `koanf:"backup"`
	Security SecurityConfig `koanf:"security"`
	Offsite  OffsiteConfig  `koanf:"offsite"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds the HRMS database connection settings.
//
// URL accepts duckdb://<path>, a bare file path, :memory:, or a
// postgres:// / postgresql:// connection string.
type DatabaseConfig struct {
	URL          string `koanf:"url"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// BackupConfig holds archive storage and operation limits.
type BackupConfig struct {
	Dir                   string        `koanf:"dir"`
	ScratchDir            string        `koanf:"scratch_dir"`
	MaxUploadSize         int64         `koanf:"max_upload_size"`
	ScratchMaxAge         time.Duration `koanf:"scratch_max_age"`
	LockTimeout           time.Duration `koanf:"lock_timeout"`
	StaleAfter            time.Duration `koanf:"stale_after"`
	LargeDatasetThreshold int           `koanf:"large_dataset_threshold"`
}

// SecurityConfig holds authentication and request limiting settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // jwt or none
	JWTSecret         string        `koanf:"jwt_secret"`
	DefaultRole       string        `koanf:"default_role"`
	PolicyPath        string        `koanf:"policy_path"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// OffsiteConfig configures the optional S3-compatible archive mirror.
type OffsiteConfig struct {
	Enabled         bool   `koanf:"enabled"`
	Bucket          string `koanf:"bucket"`
	Prefix          string `koanf:"prefix"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	ForcePathStyle  bool   `koanf:"force_path_style"`
}

// AuditConfig configures the backup event journal.
type AuditConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
	// Retention is how long journal events are kept. Zero keeps them forever.
	Retention time.Duration `koanf:"retention"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// AuthRequired reports whether requests must carry a valid JWT.
func (c *SecurityConfig) AuthRequired() bool {
	return c.AuthMode != AuthModeNone
}

// Auth modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)
