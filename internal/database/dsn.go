// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package database

import (
	"fmt"
	"regexp"
	"strings"
)

// Driver names registered by the imported database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "pgx"
)

// MaskedPassword replaces credentials in datastore descriptors.
const MaskedPassword = "****"

// ParseURL resolves a configured database URL into a driver name and the
// driver-specific DSN.
//
// Accepted forms:
//   - duckdb:///abs/path.duckdb, duckdb://relative.duckdb, duckdb://:memory:
//   - a bare file path or :memory: (DuckDB)
//   - postgres://... or postgresql://... (pgx)
func ParseURL(raw string) (driver, dsn string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("database url is empty")
	}

	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DriverPostgres, raw, nil
	case strings.HasPrefix(raw, "duckdb://"):
		dsn = strings.TrimPrefix(raw, "duckdb://")
	case strings.Contains(raw, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme in %q", MaskDSN(raw))
	default:
		dsn = raw
	}

	if dsn == ":memory:" {
		dsn = ""
	}
	return DriverDuckDB, dsn, nil
}

var passwordParam = regexp.MustCompile(`(?i)(password=)[^&\s]*`)

// MaskDSN redacts credentials from a connection descriptor: the password in
// the userinfo segment and any password= parameter, in URL or key=value form.
func MaskDSN(raw string) string {
	masked := raw

	if i := strings.Index(masked, "://"); i >= 0 {
		rest := masked[i+3:]
		authority := rest
		if j := strings.IndexAny(rest, "/?#"); j >= 0 {
			authority = rest[:j]
		}
		// A password may itself contain '/', '?' or '#', which cuts the
		// authority short before its '@'.
		at := strings.LastIndex(authority, "@")
		if at < 0 {
			at = strings.LastIndex(rest, "@")
		}
		if at >= 0 {
			userinfo := authority[:at]
			if colon := strings.Index(userinfo, ":"); colon >= 0 {
				userinfo = userinfo[:colon+1] + MaskedPassword
			}
			rest = userinfo + rest[at:]
		}
		masked = masked[:i+3] + rest
	}

	return passwordParam.ReplaceAllString(masked, "${1}"+MaskedPassword)
}
