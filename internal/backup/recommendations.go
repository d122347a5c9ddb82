// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"fmt"
	"time"
)

// Defaults for status advice.
const (
	DefaultStaleAfter            = 7 * 24 * time.Hour
	DefaultLargeDatasetThreshold = 10000
)

// recommend returns the advisory messages shown by Status. archives must be
// sorted newest first.
func recommend(archives []ArchiveEntry, totalRecords int64, now time.Time, staleAfter time.Duration, largeThreshold int64) []string {
	recs := make([]string, 0, 3)

	if len(archives) == 0 {
		recs = append(recs, "No backups found. Create your first backup to protect your data.")
	} else if now.Sub(archives[0].CreatedAt) > staleAfter {
		recs = append(recs, fmt.Sprintf("Last backup is more than %s old. Consider creating a new backup.", humanDays(staleAfter)))
	}

	if largeThreshold > 0 && totalRecords > largeThreshold {
		recs = append(recs, "Large dataset detected. Ensure adequate storage space for backups.")
	}

	return recs
}

func humanDays(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	switch {
	case days == 1:
		return "1 day"
	case days > 1:
		return fmt.Sprintf("%d days", days)
	default:
		return d.String()
	}
}
