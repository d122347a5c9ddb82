// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// setupEnv points configuration at a throwaway datastore and backup
// directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv(config.ConfigPathEnvVar, filepath.Join(root, "missing.yaml"))
	t.Setenv("DATABASE_URL", filepath.Join(root, "hrms.duckdb"))
	t.Setenv("BACKUP_DIR", filepath.Join(root, "backups"))
	t.Setenv("BACKUP_SCRATCH_DIR", filepath.Join(root, "backups", "tmp"))
	t.Setenv("AUDIT_IN_MEMORY", "true")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", testSecret)
	return root
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(append(args, "-q"))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_ExportValidateRestore(t *testing.T) {
	root := setupEnv(t)

	out, err := runCLI(t, "export", "--json")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	var created backup.CreateResult
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("export output is not JSON: %v\n%s", err, out)
	}
	archive := filepath.Join(root, "backups", created.FileName)
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive %s missing: %v", archive, err)
	}

	out, err = runCLI(t, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, created.FileName) {
		t.Errorf("list output missing %s:\n%s", created.FileName, out)
	}

	out, err = runCLI(t, "validate", archive)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "Valid backup "+created.BackupID) {
		t.Errorf("validate output = %q", out)
	}

	if _, err := runCLI(t, "restore", archive); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("restore without --yes error = %v", err)
	}

	out, err = runCLI(t, "restore", archive, "--yes")
	if err != nil {
		t.Fatalf("restore error = %v", err)
	}
	if !strings.Contains(out, "Restored") {
		t.Errorf("restore output = %q", out)
	}

	// The operator's file is never consumed.
	if _, err := os.Stat(archive); err != nil {
		t.Errorf("archive removed by restore: %v", err)
	}
	uploads, err := os.ReadDir(filepath.Join(root, "backups", "tmp", "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	if len(uploads) != 0 {
		t.Errorf("uploads left behind: %d", len(uploads))
	}
}

func TestCLI_ValidateRejectsBadFile(t *testing.T) {
	root := setupEnv(t)

	bad := filepath.Join(root, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"metadata":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "validate", bad)
	if err == nil {
		t.Fatal("validate should fail on a structurally invalid file")
	}
	if !strings.Contains(out, "INVALID") {
		t.Errorf("validate output = %q", out)
	}
}

func TestCLI_MissingFile(t *testing.T) {
	root := setupEnv(t)
	if _, err := runCLI(t, "validate", filepath.Join(root, "nope.zip")); err == nil {
		t.Fatal("validate should fail on a missing file")
	}
}

func TestCLI_OversizedFileNotSpooled(t *testing.T) {
	root := setupEnv(t)
	t.Setenv("BACKUP_MAX_UPLOAD_SIZE", "16")

	big := filepath.Join(root, "big.json")
	if err := os.WriteFile(big, bytes.Repeat([]byte("x"), 64), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, cmd := range [][]string{{"validate", big}, {"restore", big, "--yes"}} {
		_, err := runCLI(t, cmd...)
		if err == nil || !strings.Contains(err.Error(), "exceeds limit") {
			t.Errorf("%s error = %v, want size limit error", cmd[0], err)
		}
	}

	uploads, err := os.ReadDir(filepath.Join(root, "backups", "tmp", "uploads"))
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if len(uploads) != 0 {
		t.Errorf("uploads spooled for oversized file: %d", len(uploads))
	}
}

func TestCLI_Token(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "token", "--user", "u-9", "--name", "Ops")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out), "."); len(parts) != 3 {
		t.Errorf("token %q is not a compact JWT", out)
	}
}

func TestCLI_Cleanup(t *testing.T) {
	root := setupEnv(t)

	out, err := runCLI(t, "cleanup", "--max-age", "1h")
	if err != nil {
		t.Fatalf("cleanup error = %v", err)
	}
	if !strings.Contains(out, "Removed 0") {
		t.Errorf("cleanup output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "backups", "tmp")); err != nil {
		t.Errorf("scratch dir missing: %v", err)
	}
}

func TestCLI_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("JWT_SECRET", "short")

	if _, err := runCLI(t, "list"); err == nil {
		t.Fatal("list should fail with an invalid configuration")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.zip", "application/zip"},
		{"A.ZIP", "application/zip"},
		{"dir/b.json", "application/json"},
		{"c.txt", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentTypeFor(tt.path); got != tt.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCLIError(t *testing.T) {
	err := cliError(backup.ErrArchiveNotFound)
	if !strings.HasPrefix(err.Error(), "BACKUP_NOT_FOUND: ") {
		t.Errorf("cliError() = %q", err)
	}
}
