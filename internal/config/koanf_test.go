// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3857 {
		t.Errorf("Server.Port = %d, want 3857", cfg.Server.Port)
	}
	if cfg.Database.URL != "duckdb:///data/hrms.duckdb" {
		t.Errorf("Database.URL = %q, want duckdb:///data/hrms.duckdb", cfg.Database.URL)
	}
	if cfg.Backup.MaxUploadSize != 100*1024*1024 {
		t.Errorf("Backup.MaxUploadSize = %d, want 100 MiB", cfg.Backup.MaxUploadSize)
	}
	if cfg.Backup.ScratchMaxAge != time.Hour {
		t.Errorf("Backup.ScratchMaxAge = %v, want 1h", cfg.Backup.ScratchMaxAge)
	}
	if cfg.Backup.LockTimeout != 30*time.Second {
		t.Errorf("Backup.LockTimeout = %v, want 30s", cfg.Backup.LockTimeout)
	}
	if cfg.Backup.StaleAfter != 7*24*time.Hour {
		t.Errorf("Backup.StaleAfter = %v, want 168h", cfg.Backup.StaleAfter)
	}
	if cfg.Backup.LargeDatasetThreshold != 10000 {
		t.Errorf("Backup.LargeDatasetThreshold = %d, want 10000", cfg.Backup.LargeDatasetThreshold)
	}
	if cfg.Security.AuthMode != AuthModeJWT {
		t.Errorf("Security.AuthMode = %q, want jwt", cfg.Security.AuthMode)
	}
	if cfg.Offsite.Enabled {
		t.Error("Offsite.Enabled should be false by default")
	}
	if cfg.Audit.Retention != 90*24*time.Hour {
		t.Errorf("Audit.Retention = %v, want 2160h", cfg.Audit.Retention)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"DATABASE_URL", "database.url"},
		{"BACKUP_DIR", "backup.dir"},
		{"BACKUP_LOCK_TIMEOUT", "backup.lock_timeout"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"S3_BUCKET", "offsite.bucket"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		path := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(path, []byte("server:\n  port: 1\n"), 0o644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(path)

		if got := findConfigFile(); got != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", got)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		custom := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(custom, []byte("server:\n  port: 1\n"), 0o644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, custom)

		if got := findConfigFile(); got != custom {
			t.Errorf("findConfigFile() = %q, want %q", got, custom)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://hrms:secret@db:5432/hrms")
	t.Setenv("BACKUP_DIR", "/srv/backups")
	t.Setenv("BACKUP_LOCK_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Database.URL != "postgres://hrms:secret@db:5432/hrms" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.Backup.Dir != "/srv/backups" {
		t.Errorf("Backup.Dir = %q, want /srv/backups", cfg.Backup.Dir)
	}
	if cfg.Backup.LockTimeout != 5*time.Second {
		t.Errorf("Backup.LockTimeout = %v, want 5s", cfg.Backup.LockTimeout)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}

	// Defaults survive for unset values
	if cfg.Backup.ScratchDir != "/data/backups/tmp" {
		t.Errorf("Backup.ScratchDir = %q, want default", cfg.Backup.ScratchDir)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	content := `
server:
  port: 8888
backup:
  dir: /from/file
  stale_after: 48h
security:
  auth_mode: none
logging:
  level: warn
`
	path := filepath.Join(tmpDir, "hrmsvault.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("BACKUP_DIR", "/from/env")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Backup.Dir != "/from/env" {
		t.Errorf("Backup.Dir = %q, want /from/env", cfg.Backup.Dir)
	}
	if cfg.Backup.StaleAfter != 48*time.Hour {
		t.Errorf("Backup.StaleAfter = %v, want 48h", cfg.Backup.StaleAfter)
	}
	if cfg.Security.AuthRequired() {
		t.Error("AuthRequired() = true, want false for auth_mode none")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "JWT_SECRET"},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"empty database url", func(c *Config) { c.Database.URL = " " }, "DATABASE_URL"},
		{"unsupported scheme", func(c *Config) { c.Database.URL = "mysql://x/y" }, "scheme"},
		{"bare duckdb path", func(c *Config) { c.Database.URL = "/tmp/hrms.duckdb" }, ""},
		{"missing backup dir", func(c *Config) { c.Backup.Dir = "" }, "BACKUP_DIR"},
		{"scratch equals backup dir", func(c *Config) { c.Backup.ScratchDir = c.Backup.Dir }, "BACKUP_SCRATCH_DIR"},
		{"scratch resolves to backup dir", func(c *Config) { c.Backup.ScratchDir = c.Backup.Dir + "/tmp/../" }, "BACKUP_SCRATCH_DIR"},
		{"scratch nested in backup dir", func(c *Config) { c.Backup.ScratchDir = c.Backup.Dir + "/tmp" }, ""},
		{"zero lock timeout", func(c *Config) { c.Backup.LockTimeout = 0 }, "BACKUP_LOCK_TIMEOUT"},
		{"offsite without bucket", func(c *Config) { c.Offsite.Enabled = true }, "S3_BUCKET"},
		{"offsite bad endpoint", func(c *Config) {
			c.Offsite.Enabled = true
			c.Offsite.Bucket = "b"
			c.Offsite.Endpoint = "minio:9000"
		}, "S3_ENDPOINT"},
		{"offsite half credentials", func(c *Config) {
			c.Offsite.Enabled = true
			c.Offsite.Bucket = "b"
			c.Offsite.AccessKeyID = "id"
		}, "S3_ACCESS_KEY_ID"},
		{"audit path required", func(c *Config) { c.Audit.Path = "" }, "AUDIT_PATH"},
		{"audit in memory", func(c *Config) { c.Audit.Path = ""; c.Audit.InMemory = true }, ""},
		{"negative audit retention", func(c *Config) { c.Audit.Retention = -time.Hour }, "AUDIT_RETENTION"},
		{"audit retention disabled", func(c *Config) { c.Audit.Retention = 0 }, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWTSecret = testSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
