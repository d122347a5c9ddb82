// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
store.go - Archive Store

Filesystem layout managed by the store:

	<dir>/
	├── hrms-backup-<timestamp>-<id8>.zip   (finished archives)
	├── .hrms-backup-....zip.partial        (archive being written)
	└── <scratch>/
	    ├── hrms-backup-....json            (packager intermediate)
	    └── uploads/
	        └── restore-*.upload            (spooled restore uploads)

Archive names reaching the store have already passed ValidateArchiveName;
the store never joins an unchecked name onto its directory.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

const (
	archiveExt    = ".zip"
	partialSuffix = ".partial"
	uploadsSubdir = "uploads"
	downloadRoute = "/api/v1/backups/"
)

// Upload content types and extensions accepted for restore.
var (
	allowedUploadTypes = map[string]bool{
		"application/json":             true,
		"application/zip":              true,
		"application/x-zip-compressed": true,
	}
	allowedUploadExts = map[string]bool{
		".json": true,
		".zip":  true,
	}
)

// Store is the filesystem-backed archive directory plus its scratch area.
type Store struct {
	dir        string
	scratchDir string
	uploadsDir string
	maxUpload  int64
	now        func() time.Time
}

// NewStore creates an archive store rooted at cfg.Dir.
func NewStore(cfg *config.BackupConfig) *Store {
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = config.MaxUploadSize
	}
	return &Store{
		dir:        cfg.Dir,
		scratchDir: cfg.ScratchDir,
		uploadsDir: filepath.Join(cfg.ScratchDir, uploadsSubdir),
		maxUpload:  maxUpload,
		now:        time.Now,
	}
}

// Dir returns the archive directory.
func (s *Store) Dir() string { return s.dir }

// ScratchDir returns the scratch directory.
func (s *Store) ScratchDir() string { return s.scratchDir }

// UploadsDir returns the directory restore uploads are spooled to.
func (s *Store) UploadsDir() string { return s.uploadsDir }

// MaxUploadSize returns the restore upload ceiling in bytes.
func (s *Store) MaxUploadSize() int64 { return s.maxUpload }

// EnsureDirectories creates the archive, scratch and upload directories.
// It is idempotent.
func (s *Store) EnsureDirectories() error {
	for _, dir := range []string{s.dir, s.scratchDir, s.uploadsDir} {
		// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return newError(KindDirectoryInitFailed, ErrDirectoryInitFailed.Message, fmt.Errorf("%s: %w", dir, err))
		}
	}
	return nil
}

// ValidateArchiveName rejects empty names and names carrying path
// traversal or directory separators. It touches no filesystem state.
func ValidateArchiveName(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return ErrInvalidFilename
	}
	return nil
}

// List returns the archives in the store, newest first. A missing archive
// directory yields an empty list.
func (s *Store) List() ([]ArchiveEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []ArchiveEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	archives := make([]ArchiveEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		archives = append(archives, s.entryFor(name, info))
	}

	sort.Slice(archives, func(i, j int) bool {
		if archives[i].CreatedAt.Equal(archives[j].CreatedAt) {
			return archives[i].FileName > archives[j].FileName
		}
		return archives[i].CreatedAt.After(archives[j].CreatedAt)
	})
	return archives, nil
}

// entryFor builds a listing entry. Linux exposes no portable birth time, so
// creation uses the modification time; archives are write-once.
func (s *Store) entryFor(name string, info fs.FileInfo) ArchiveEntry {
	return ArchiveEntry{
		FileName:      name,
		Size:          info.Size(),
		SizeFormatted: FormatSize(info.Size()),
		CreatedAt:     info.ModTime().UTC(),
		ModifiedAt:    info.ModTime().UTC(),
		DownloadURL:   DownloadURL(name),
	}
}

// DownloadURL returns the API path serving the named archive.
func DownloadURL(name string) string {
	return downloadRoute + name + "/download"
}

// PathFor returns the absolute location of the named archive.
func (s *Store) PathFor(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named archive is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.PathFor(name))
	return err == nil && info.Mode().IsRegular()
}

// Open opens the named archive for streaming.
//
//nolint:gosec // G304: name is validated by ValidateArchiveName
func (s *Store) Open(name string) (*os.File, *ArchiveEntry, error) {
	if err := ValidateArchiveName(name); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.PathFor(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrArchiveNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open backup: %w", err)
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close() //nolint:errcheck // Best effort cleanup on error
		return nil, nil, ErrArchiveNotFound
	}
	entry := s.entryFor(name, info)
	return f, &entry, nil
}

// Delete removes the named archive.
func (s *Store) Delete(name string) error {
	if err := ValidateArchiveName(name); err != nil {
		return err
	}
	if !s.Exists(name) {
		return ErrArchiveNotFound
	}
	if err := os.Remove(s.PathFor(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrArchiveNotFound
		}
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

// CreateUpload creates an empty spool file in the uploads directory.
func (s *Store) CreateUpload() (*os.File, error) {
	f, err := os.CreateTemp(s.uploadsDir, "restore-*.upload")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	return f, nil
}

// RemoveUpload deletes a spooled upload. Missing files are ignored.
func (s *Store) RemoveUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to remove upload scratch file")
	}
}

// CleanupScratch removes scratch and upload files, and abandoned partial
// archives, last modified more than maxAge ago. Failures are logged and
// skipped. It returns the number of files removed.
func (s *Store) CleanupScratch(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	removed := 0

	sweep := func(dir string, match func(name string) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logging.Warn().Err(err).Str("dir", dir).Msg("Failed to read scratch directory")
			}
			return
		}
		for _, entry := range entries {
			if entry.IsDir() || !match(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				logging.Warn().Err(err).Str("path", path).Msg("Failed to remove stale scratch file")
				continue
			}
			removed++
		}
	}

	scratch := func(string) bool { return true }
	if samePath(s.scratchDir, s.dir) {
		// Finished archives are only ever removed by Delete.
		scratch = func(name string) bool { return !strings.HasSuffix(name, archiveExt) }
	}
	all := func(string) bool { return true }
	sweep(s.scratchDir, scratch)
	sweep(s.uploadsDir, all)
	sweep(s.dir, func(name string) bool { return strings.HasSuffix(name, partialSuffix) })

	if removed > 0 {
		logging.Info().Int("removed", removed).Dur("max_age", maxAge).Msg("Cleaned up stale scratch files")
	}
	return removed
}

// samePath reports whether a and b name the same directory after cleaning.
func samePath(a, b string) bool {
	if absA, err := filepath.Abs(a); err == nil {
		a = absA
	}
	if absB, err := filepath.Abs(b); err == nil {
		b = absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// ValidateUpload checks a restore upload's declared size and type before
// any of it is parsed.
func (s *Store) ValidateUpload(name, contentType string, size int64) UploadCheck {
	if size > s.maxUpload {
		return UploadCheck{Reason: fmt.Sprintf("File size exceeds limit of %s", FormatLimit(s.maxUpload))}
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadTypes[mediaType] && !allowedUploadExts[ext] {
		return UploadCheck{Reason: "Only JSON and ZIP backup files are allowed"}
	}
	return UploadCheck{Valid: true}
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count using 1024-based units with at most two
// decimals, e.g. "0 Bytes", "1.5 KB", "100 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatLimit renders an upload ceiling in whole megabytes when possible.
func FormatLimit(bytes int64) string {
	const mib = 1 << 20
	if bytes >= mib && bytes%mib == 0 {
		return fmt.Sprintf("%d MB", bytes/mib)
	}
	return FormatSize(bytes)
}
