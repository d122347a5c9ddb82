// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
packager.go - Backup Archive Creation

Archive Structure:

	hrms-backup-{timestamp}-{id8}.zip
	├── hrms-backup-{timestamp}-{id8}.json  (full snapshot, pretty-printed)
	├── metadata.json                       (copy of snapshot metadata)
	└── README.txt                          (manifest and restore warnings)

Archive Creation Process:
 1. Write the snapshot JSON to the scratch directory
 2. Open a hidden .partial file in the archive directory
 3. Stream the snapshot into a zip entry at maximum compression,
    hashing it with SHA-256 on the way
 4. Add metadata.json and README.txt
 5. Close writers in reverse order and fsync
 6. Rename the .partial file to its final name

The scratch JSON is removed on every path. A failed run removes the
.partial file, so the archive directory only ever holds complete archives.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"archive/zip"
	"compress/flate"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/logging"
)

const (
	archivePrefix    = "hrms-backup-"
	metadataFileName = "metadata.json"
	readmeFileName   = "README.txt"
)

// Packager turns snapshots into archives in a Store.
type Packager struct {
	store *Store
	reg   *Registry
}

// NewPackager creates a packager writing into store.
func NewPackager(store *Store, reg *Registry) *Packager {
	return &Packager{store: store, reg: reg}
}

// BaseName derives the archive base name from snapshot metadata:
// the timestamp with ':' and '.' replaced by '-', and the first eight
// characters of the backup id.
func BaseName(meta Metadata) string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(meta.Timestamp)
	id := meta.BackupID
	if len(id) > 8 {
		id = id[:8]
	}
	return archivePrefix + ts + "-" + id
}

// archiveWriters holds the writers needed for creating backup archives
type archiveWriters struct {
	file      *os.File
	zipWriter *zip.Writer
	closers   []io.Closer
}

// Close closes all writers in reverse order, returning the first error encountered
func (aw *archiveWriters) Close() error {
	var firstErr error
	for i := len(aw.closers) - 1; i >= 0; i-- {
		if err := aw.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// setupArchiveWriters creates the file and zip writer for a new archive.
//
//nolint:gosec // G304: filePath is derived from the store directory and a generated name
func setupArchiveWriters(filePath string) (*archiveWriters, error) {
	outFile, err := os.OpenFile(filePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}

	zw := zip.NewWriter(outFile)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	return &archiveWriters{
		file:      outFile,
		zipWriter: zw,
		closers:   []io.Closer{outFile, zw},
	}, nil
}

// Package writes snap as a new archive and returns its descriptor.
func (p *Packager) Package(ctx context.Context, snap *Snapshot) (*ArchiveInfo, error) {
	if snap == nil {
		return nil, newError(KindArchiveCreationFailed, ErrArchiveCreationFailed.Message, errors.New("nil snapshot"))
	}

	base := BaseName(snap.Metadata)
	jsonName := base + ".json"
	archiveName := base + archiveExt

	jsonPath := filepath.Join(p.store.ScratchDir(), jsonName)
	defer removeScratch(jsonPath)

	if err := writeSnapshotJSON(jsonPath, snap); err != nil {
		return nil, newError(KindArchiveCreationFailed, ErrArchiveCreationFailed.Message, err)
	}

	partialPath := filepath.Join(p.store.Dir(), "."+archiveName+partialSuffix)
	checksum, err := p.writeArchive(ctx, partialPath, jsonPath, jsonName, snap.Metadata)
	if err != nil {
		removeScratch(partialPath)
		return nil, newError(KindArchiveCreationFailed, ErrArchiveCreationFailed.Message, err)
	}

	finalPath := p.store.PathFor(archiveName)
	if err := os.Rename(partialPath, finalPath); err != nil {
		removeScratch(partialPath)
		return nil, newError(KindArchiveCreationFailed, ErrArchiveCreationFailed.Message, fmt.Errorf("failed to finalize archive: %w", err))
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, newError(KindArchiveCreationFailed, ErrArchiveCreationFailed.Message, err)
	}

	absPath, err := filepath.Abs(finalPath)
	if err != nil {
		absPath = finalPath
	}

	logging.Info().
		Str("backup_id", snap.Metadata.BackupID).
		Str("file", archiveName).
		Int64("size", info.Size()).
		Msg("Backup archive created")

	return &ArchiveInfo{
		FileName:    archiveName,
		Path:        absPath,
		Size:        info.Size(),
		Checksum:    checksum,
		DownloadURL: DownloadURL(archiveName),
	}, nil
}

// writeSnapshotJSON writes the pretty-printed snapshot to path.
func writeSnapshotJSON(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// writeArchive builds the zip at path. The archive is complete only when
// every writer has closed without error.
func (p *Packager) writeArchive(ctx context.Context, path, jsonPath, jsonName string, meta Metadata) (checksum string, err error) {
	aw, err := setupArchiveWriters(path)
	if err != nil {
		return "", err
	}
	closed := false
	defer func() {
		if closed {
			return
		}
		closeErr := aw.Close()
		if err == nil {
			err = closeErr
		}
	}()

	checksum, err = addFileToArchive(aw.zipWriter, jsonPath, jsonName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := addBytesToArchive(aw.zipWriter, metadataFileName, metaJSON); err != nil {
		return "", err
	}

	readme := renderManifest(meta, p.reg, jsonName, checksum)
	if err := addBytesToArchive(aw.zipWriter, readmeFileName, []byte(readme)); err != nil {
		return "", err
	}

	// Flush the central directory before syncing the file.
	closed = true
	if err := aw.zipWriter.Close(); err != nil {
		aw.file.Close() //nolint:errcheck // Best effort cleanup on error
		return "", fmt.Errorf("failed to finalize zip: %w", err)
	}
	if err := aw.file.Sync(); err != nil {
		aw.file.Close() //nolint:errcheck // Best effort cleanup on error
		return "", fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := aw.file.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	return checksum, nil
}

// addFileToArchive copies srcPath into a deflated entry and returns the
// SHA-256 of its content.
//
//nolint:gosec // G304: srcPath is a scratch file created by the packager
func addFileToArchive(zw *zip.Writer, srcPath, destName string) (string, error) {
	file, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer file.Close() //nolint:errcheck // Best effort cleanup

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", srcPath, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return "", fmt.Errorf("failed to create zip header for %s: %w", destName, err)
	}
	header.Name = destName
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return "", fmt.Errorf("failed to write zip header for %s: %w", destName, err)
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(w, hasher), file); err != nil {
		return "", fmt.Errorf("failed to copy %s to archive: %w", destName, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func addBytesToArchive(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write zip header for %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}

// removeScratch deletes a packaging intermediate, logging real failures.
func removeScratch(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to remove scratch file")
	}
}
