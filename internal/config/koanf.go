// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are the locations searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/hrmsvault/config.yaml",
	"/etc/hrmsvault/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// MaxUploadSize is the default cap on restore uploads (100 MiB).
const MaxUploadSize int64 = 100 * 1024 * 1024

// sliceConfigPaths lists koanf paths that accept comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    3857,
			Host:    "0.0.0.0",
			Timeout: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			URL:          "duckdb:///data/hrms.duckdb",
			MaxOpenConns: 4,
		},
		Backup: BackupConfig{
			Dir:                   "/data/backups",
			ScratchDir:            "/data/backups/tmp",
			MaxUploadSize:         MaxUploadSize,
			ScratchMaxAge:         60 * time.Minute,
			LockTimeout:           30 * time.Second,
			StaleAfter:            7 * 24 * time.Hour,
			LargeDatasetThreshold: 10000,
		},
		Security: SecurityConfig{
			AuthMode:          AuthModeJWT,
			DefaultRole:       "super_admin",
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Offsite: OffsiteConfig{
			Prefix: "hrms-backups/",
			Region: "us-east-1",
		},
		Audit: AuditConfig{
			Path:      "/data/audit",
			Retention: 90 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// the environment, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DATABASE_URL -> database.url, BACKUP_DIR -> backup.dir
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Load is the entry point used by the server and CLI.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"http_host":         "server.host",
	"http_port":         "server.port",
	"server_host":       "server.host",
	"server_port":       "server.port",
	"server_timeout":    "server.timeout",
	"database_url":      "database.url",
	"db_url":            "database.url",
	"db_max_open_conns": "database.max_open_conns",

	"backup_dir":                     "backup.dir",
	"backup_scratch_dir":             "backup.scratch_dir",
	"backup_max_upload_size":         "backup.max_upload_size",
	"backup_scratch_max_age":         "backup.scratch_max_age",
	"backup_lock_timeout":            "backup.lock_timeout",
	"backup_stale_after":             "backup.stale_after",
	"backup_large_dataset_threshold": "backup.large_dataset_threshold",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"auth_default_role":   "security.default_role",
	"authz_policy_path":   "security.policy_path",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",

	"offsite_enabled":      "offsite.enabled",
	"s3_bucket":            "offsite.bucket",
	"s3_prefix":            "offsite.prefix",
	"s3_region":            "offsite.region",
	"s3_endpoint":          "offsite.endpoint",
	"s3_access_key_id":     "offsite.access_key_id",
	"s3_secret_access_key": "offsite.secret_access_key",
	"s3_force_path_style":  "offsite.force_path_style",

	"audit_path":      "audit.path",
	"audit_in_memory": "audit.in_memory",
	"audit_retention": "audit.retention",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// Returning "" skips the variable so unrelated environment does not leak in.
	return ""
}
