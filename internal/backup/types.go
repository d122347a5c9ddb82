// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"time"

	"github.com/tomtom215/hrmsvault/internal/database"
)

// SchemaVersion is the snapshot format version written to metadata.
const SchemaVersion = "1.0"

// DefaultCreatedBy labels snapshots exported without an originator.
const DefaultCreatedBy = "System"

// RoleSuperAdmin is the privilege tier allowed to manage backups.
const RoleSuperAdmin = "super_admin"

// Snapshot is the full dataset plus its metadata. It is the unit of backup
// and restore; Data is keyed by entity type key (see Registry).
type Snapshot struct {
	Metadata Metadata                     `json:"metadata"`
	Data     map[string][]database.Record `json:"data"`
}

// Metadata describes a snapshot.
type Metadata struct {
	Version      string         `json:"version"`
	Timestamp    string         `json:"timestamp"`
	Database     string         `json:"database"`
	TotalRecords int            `json:"totalRecords"`
	BackupID     string         `json:"backupId"`
	CreatedBy    string         `json:"createdBy"`
	Tables       map[string]int `json:"tables"`
}

// ArchiveInfo describes an archive produced by the packager.
type ArchiveInfo struct {
	FileName    string `json:"fileName"`
	Path        string `json:"filePath"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
	DownloadURL string `json:"downloadUrl"`
}

// ArchiveEntry is one archive in the store listing.
type ArchiveEntry struct {
	FileName      string    `json:"fileName"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"sizeFormatted"`
	CreatedAt     time.Time `json:"createdAt"`
	ModifiedAt    time.Time `json:"modifiedAt"`
	DownloadURL   string    `json:"downloadUrl"`
}

// Principal is the authenticated caller of a backup operation.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// DisplayName returns the name recorded as a snapshot originator.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return DefaultCreatedBy
}

// Upload is a restore candidate already spooled to the scratch area. The
// service owns Path and removes it when the operation ends.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Path        string
}

// UploadCheck is the outcome of ValidateUpload.
type UploadCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CreateResult is returned by Service.Create.
type CreateResult struct {
	BackupID      string         `json:"backupId"`
	FileName      string         `json:"fileName"`
	FilePath      string         `json:"filePath"`
	Timestamp     string         `json:"timestamp"`
	TotalRecords  int            `json:"totalRecords"`
	Size          int64          `json:"size"`
	SizeFormatted string         `json:"sizeFormatted"`
	Checksum      string         `json:"checksum"`
	DownloadURL   string         `json:"downloadUrl"`
	Tables        map[string]int `json:"tables"`
	Mirrored      bool           `json:"mirrored"`
}

// ListResult is returned by Service.List.
type ListResult struct {
	Backups       []ArchiveEntry   `json:"backups"`
	CurrentCounts map[string]int64 `json:"currentCounts"`
}

// RestoreResult is returned by Service.Restore.
type RestoreResult struct {
	RestoredRecords   int            `json:"restoredRecords"`
	BackupID          string         `json:"backupId"`
	OriginalTimestamp string         `json:"originalTimestamp"`
	OriginalCreatedBy string         `json:"originalCreatedBy"`
	RestoredAt        string         `json:"restoredAt"`
	RestoredBy        string         `json:"restoredBy"`
	Tables            map[string]int `json:"tables"`
}

// CheckResult is returned by the dry-run Service.Check.
type CheckResult struct {
	Valid    bool      `json:"valid"`
	Problems []string  `json:"problems,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// LastRestore summarizes the most recent successful restore.
type LastRestore struct {
	BackupID   string    `json:"backupId,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	RestoredAt time.Time `json:"restoredAt"`
	RestoredBy string    `json:"restoredBy"`
}

// StatusResult is returned by Service.Status.
type StatusResult struct {
	CurrentCounts      map[string]int64 `json:"currentCounts"`
	TotalRecords       int64            `json:"totalRecords"`
	BackupCount        int              `json:"backupCount"`
	TotalSize          int64            `json:"totalSize"`
	TotalSizeFormatted string           `json:"totalSizeFormatted"`
	OldestBackup       *time.Time       `json:"oldestBackup"`
	NewestBackup       *time.Time       `json:"newestBackup"`
	LastRestore        *LastRestore     `json:"lastRestore,omitempty"`
	Recommendations    []string         `json:"recommendations"`
}

// ImportResult is returned by Importer.ImportAll.
type ImportResult struct {
	Restored map[string]int `json:"restored"`
	Total    int            `json:"total"`
	Duration time.Duration  `json:"duration"`
}

// ProgressFunc observes import progress. done counts records of entity
// written so far out of total for that entity.
type ProgressFunc func(entity string, done, total int)
