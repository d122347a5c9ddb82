// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"fmt"
	"strings"
)

var restoreWarnings = []string{
	"Restoring this backup REPLACES ALL existing data in every table listed above.",
	"The restore runs in a single transaction. If any record fails, nothing is changed.",
	"User accounts, password hashes and settings return to their state at backup time.",
	"Only super administrators can restore backups.",
	"Create a fresh backup of the current data before restoring.",
}

// renderManifest produces the README.txt placed in every archive.
func renderManifest(meta Metadata, reg *Registry, snapshotFile, checksum string) string {
	var b strings.Builder

	b.WriteString("HRMS BACKUP\n")
	b.WriteString("===========\n\n")

	fmt.Fprintf(&b, "Backup ID:      %s\n", meta.BackupID)
	fmt.Fprintf(&b, "Created:        %s\n", meta.Timestamp)
	fmt.Fprintf(&b, "Created By:     %s\n", meta.CreatedBy)
	fmt.Fprintf(&b, "Format Version: %s\n", meta.Version)
	fmt.Fprintf(&b, "Database:       %s\n", meta.Database)
	fmt.Fprintf(&b, "Total Records:  %d\n\n", meta.TotalRecords)

	b.WriteString("RECORD COUNTS\n")
	b.WriteString("-------------\n")
	for _, key := range reg.Keys() {
		fmt.Fprintf(&b, "  %-20s %8d\n", key, meta.Tables[key])
	}
	b.WriteString("\n")

	b.WriteString("FILES\n")
	b.WriteString("-----\n")
	fmt.Fprintf(&b, "  %s\n      Full snapshot: metadata and data for all record types\n", snapshotFile)
	fmt.Fprintf(&b, "  %s\n      Snapshot metadata only\n", metadataFileName)
	fmt.Fprintf(&b, "  %s\n      This file\n\n", readmeFileName)

	if checksum != "" {
		fmt.Fprintf(&b, "SHA-256 (%s):\n  %s\n\n", snapshotFile, checksum)
	}

	b.WriteString("RESTORE WARNINGS\n")
	b.WriteString("----------------\n")
	for _, w := range restoreWarnings {
		fmt.Fprintf(&b, "  ! %s\n", w)
	}
	b.WriteString("\n")
	b.WriteString("Restore by uploading this .zip (or the .json inside it) to\n")
	b.WriteString("POST /api/v1/backups/restore, or with: hrmsctl restore <file> --yes\n")

	return b.String()
}
