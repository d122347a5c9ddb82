// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

/*
service.go - Backup Service

The service is the single entry point used by the HTTP API and the operator
CLI. Every operation:

 1. Authorizes the principal (before any I/O)
 2. Validates names and uploads at the boundary
 3. Serializes mutations (create, restore) through the mutation lock
 4. Delegates to the export/import engines, packager and archive store
 5. Records metrics and publishes an audit event

Off-site mirroring, event publication and restore history are optional
collaborators supplied with Options. Their failures are logged and never
fail the operation that triggered them.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/hrmsvault/internal/audit"
	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/metrics"
)

// Authorization object and action checked for every backup operation.
const (
	PolicyObject = "backups"
	PolicyAction = "manage"
)

// Operation names used in metrics, locks and logs.
const (
	OpCreate  = "create"
	OpRestore = "restore"
	OpDelete  = "delete"
)

// maxDecompressedFactor bounds how much a zip upload may inflate.
const maxDecompressedFactor = 10

// Authorizer decides whether a role may perform an action on an object.
type Authorizer interface {
	Enforce(subject, object, action string) (bool, error)
}

// Mirror keeps an off-site copy of archives.
type Mirror interface {
	Upload(ctx context.Context, name, path string) error
	Delete(ctx context.Context, name string) error
}

// Publisher delivers audit events.
type Publisher interface {
	Publish(ctx context.Context, event *audit.Event) error
}

// History answers queries over past backup events.
type History interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMirror copies new archives off-site and removes them on delete.
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithPublisher publishes an audit event for every operation outcome.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithHistory enables the last-restore status field and History queries.
func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service composes the backup engines behind authorization and locking.
type Service struct {
	cfg       config.BackupConfig
	store     *Store
	exporter  *Exporter
	importer  *Importer
	packager  *Packager
	validator *Validator
	authz     Authorizer
	lock      *mutationLock

	mirror    Mirror
	publisher Publisher
	history   History
	now       func() time.Time
}

// NewService wires the backup service. authz may be nil, in which case only
// the super_admin role is allowed.
func NewService(cfg *config.BackupConfig, store *Store, exporter *Exporter, importer *Importer, packager *Packager, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		cfg:       *cfg,
		store:     store,
		exporter:  exporter,
		importer:  importer,
		packager:  packager,
		validator: NewValidator(exporter.Registry()),
		authz:     authz,
		lock:      newMutationLock(cfg.LockTimeout),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.ScratchMaxAge <= 0 {
		s.cfg.ScratchMaxAge = time.Hour
	}
	if s.cfg.StaleAfter <= 0 {
		s.cfg.StaleAfter = DefaultStaleAfter
	}
	if s.cfg.LargeDatasetThreshold <= 0 {
		s.cfg.LargeDatasetThreshold = DefaultLargeDatasetThreshold
	}
	return s
}

// Store returns the archive store.
func (s *Service) Store() *Store {
	return s.store
}

// Authorize returns ErrInsufficientPermissions unless p may manage backups.
func (s *Service) Authorize(p Principal) error {
	if s.authz == nil {
		if p.Role == RoleSuperAdmin {
			return nil
		}
		return ErrInsufficientPermissions
	}

	allowed, err := s.authz.Enforce(p.Role, PolicyObject, PolicyAction)
	if err != nil {
		logging.Error().Err(err).Str("role", p.Role).Msg("Authorization check failed")
		return ErrInsufficientPermissions
	}
	if !allowed {
		return ErrInsufficientPermissions
	}
	return nil
}

// Create exports the datastore and packages it as a new archive.
func (s *Service) Create(ctx context.Context, p Principal) (result *CreateResult, err error) {
	if err := s.Authorize(p); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordBackupOperation(OpCreate, time.Since(start), err)
		if err != nil {
			s.publish(ctx, s.failureEvent(ctx, audit.EventTypeBackupCreateFailed, p, "", err))
		}
	}()

	release, err := s.lock.acquire(ctx, OpCreate)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := s.exporter.ExportAll(ctx, p.DisplayName())
	if err != nil {
		return nil, err
	}

	info, err := s.packager.Package(ctx, snap)
	if err != nil {
		return nil, err
	}

	if removed := s.store.CleanupScratch(s.cfg.ScratchMaxAge); removed > 0 {
		metrics.ScratchFilesRemoved.Add(float64(removed))
	}

	mirrored := s.mirrorUpload(ctx, info)
	metrics.BackupRecordsExported.Add(float64(snap.Metadata.TotalRecords))
	s.refreshGauges()

	result = &CreateResult{
		BackupID:      snap.Metadata.BackupID,
		FileName:      info.FileName,
		FilePath:      info.Path,
		Timestamp:     snap.Metadata.Timestamp,
		TotalRecords:  snap.Metadata.TotalRecords,
		Size:          info.Size,
		SizeFormatted: FormatSize(info.Size),
		Checksum:      info.Checksum,
		DownloadURL:   info.DownloadURL,
		Tables:        snap.Metadata.Tables,
		Mirrored:      mirrored,
	}

	event := s.event(ctx, audit.EventTypeBackupCreated, audit.OutcomeSuccess, p, info.FileName, snap.Metadata.BackupID)
	event.Description = fmt.Sprintf("Backup created with %d records", snap.Metadata.TotalRecords)
	event.WithMetadata(map[string]interface{}{
		"totalRecords": snap.Metadata.TotalRecords,
		"size":         info.Size,
		"checksum":     info.Checksum,
		"tables":       snap.Metadata.Tables,
		"mirrored":     mirrored,
	})
	s.publish(ctx, event)

	logging.Ctx(ctx).Info().
		Str("backup_id", result.BackupID).
		Str("file", result.FileName).
		Int("records", result.TotalRecords).
		Str("by", p.DisplayName()).
		Msg("Backup created")

	return result, nil
}

// List returns the archives plus live per-entity counts.
func (s *Service) List(ctx context.Context, p Principal) (*ListResult, error) {
	if err := s.Authorize(p); err != nil {
		return nil, err
	}

	archives, err := s.store.List()
	if err != nil {
		return nil, err
	}
	counts, err := s.exporter.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	s.updateGauges(archives)

	return &ListResult{Backups: archives, CurrentCounts: counts}, nil
}

// Open returns the named archive for download. The caller closes the file.
func (s *Service) Open(ctx context.Context, p Principal, name string) (*os.File, *ArchiveEntry, error) {
	if err := s.Authorize(p); err != nil {
		return nil, nil, err
	}
	if err := ValidateArchiveName(name); err != nil {
		return nil, nil, err
	}
	return s.store.Open(name)
}

// Delete removes the named archive and, best effort, its off-site copy.
func (s *Service) Delete(ctx context.Context, p Principal, name string) (err error) {
	if err := s.Authorize(p); err != nil {
		return err
	}
	if err := ValidateArchiveName(name); err != nil {
		return err
	}

	start := time.Now()
	defer func() { metrics.RecordBackupOperation(OpDelete, time.Since(start), err) }()

	if err := s.store.Delete(name); err != nil {
		return err
	}

	if s.mirror != nil {
		if merr := s.mirror.Delete(ctx, name); merr != nil {
			logging.Ctx(ctx).Warn().Err(merr).Str("file", name).Msg("Failed to delete off-site copy")
		}
	}
	s.refreshGauges()

	event := s.event(ctx, audit.EventTypeBackupDeleted, audit.OutcomeSuccess, p, name, "")
	event.Description = "Backup deleted"
	s.publish(ctx, event)

	logging.Ctx(ctx).Info().Str("file", name).Str("by", p.DisplayName()).Msg("Backup deleted")
	return nil
}

// Restore validates an uploaded snapshot and replaces the datastore with
// it. The upload file is removed on every path.
func (s *Service) Restore(ctx context.Context, p Principal, up *Upload) (result *RestoreResult, err error) {
	if up != nil {
		defer s.store.RemoveUpload(up.Path)
	}
	if err := s.Authorize(p); err != nil {
		return nil, err
	}
	if up == nil {
		return nil, ErrNoFileProvided
	}

	start := time.Now()
	var snap *Snapshot
	defer func() {
		metrics.RecordBackupOperation(OpRestore, time.Since(start), err)
		if err != nil {
			backupID := ""
			if snap != nil {
				backupID = snap.Metadata.BackupID
			}
			s.publish(ctx, s.failureEvent(ctx, audit.EventTypeBackupRestoreFailed, p, up.FileName, err).
				WithMetadata(map[string]string{"backupId": backupID}))
		}
	}()

	snap, problems, err := s.loadUpload(up)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, newError(KindInvalidBackupStructure, ErrInvalidBackupStructure.Message, errors.New(strings.Join(problems, "; ")))
	}

	release, err := s.lock.acquire(ctx, OpRestore)
	if err != nil {
		return nil, err
	}
	defer release()

	imported, err := s.importer.ImportAll(ctx, snap)
	if err != nil {
		return nil, err
	}
	metrics.BackupRecordsRestored.Add(float64(imported.Total))

	restoredAt := s.now().UTC()
	result = &RestoreResult{
		RestoredRecords:   imported.Total,
		BackupID:          snap.Metadata.BackupID,
		OriginalTimestamp: snap.Metadata.Timestamp,
		OriginalCreatedBy: snap.Metadata.CreatedBy,
		RestoredAt:        restoredAt.Format(time.RFC3339Nano),
		RestoredBy:        p.DisplayName(),
		Tables:            imported.Restored,
	}

	event := s.event(ctx, audit.EventTypeBackupRestored, audit.OutcomeSuccess, p, up.FileName, snap.Metadata.BackupID)
	event.Timestamp = restoredAt
	event.Description = fmt.Sprintf("Restored %d records from backup %s", imported.Total, snap.Metadata.BackupID)
	event.WithMetadata(map[string]interface{}{
		"restoredRecords":   imported.Total,
		"originalTimestamp": snap.Metadata.Timestamp,
		"originalCreatedBy": snap.Metadata.CreatedBy,
		"tables":            imported.Restored,
		"durationMs":        imported.Duration.Milliseconds(),
	})
	s.publish(ctx, event)

	logging.Ctx(ctx).Warn().
		Str("backup_id", result.BackupID).
		Int("records", result.RestoredRecords).
		Str("by", result.RestoredBy).
		Msg("Datastore restored from backup")

	return result, nil
}

// Check validates an upload without touching the datastore. A file that is
// not JSON, or has the wrong shape, yields a result listing the problems.
func (s *Service) Check(ctx context.Context, p Principal, up *Upload) (*CheckResult, error) {
	if up != nil {
		defer s.store.RemoveUpload(up.Path)
	}
	if err := s.Authorize(p); err != nil {
		return nil, err
	}
	if up == nil {
		return nil, ErrNoFileProvided
	}

	snap, problems, err := s.loadUpload(up)
	if err != nil {
		if KindOf(err) == KindInvalidBackupFile {
			return &CheckResult{Valid: false, Problems: []string{DetailOf(err)}}, nil
		}
		return nil, err
	}
	if len(problems) > 0 {
		return &CheckResult{Valid: false, Problems: problems}, nil
	}
	meta := snap.Metadata
	return &CheckResult{Valid: true, Metadata: &meta}, nil
}

// Status summarizes live counts, stored archives and advice.
func (s *Service) Status(ctx context.Context, p Principal) (*StatusResult, error) {
	if err := s.Authorize(p); err != nil {
		return nil, err
	}

	counts, err := s.exporter.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	archives, err := s.store.List()
	if err != nil {
		return nil, err
	}
	s.updateGauges(archives)

	status := &StatusResult{
		CurrentCounts: counts,
		BackupCount:   len(archives),
	}
	for _, n := range counts {
		status.TotalRecords += n
	}
	for i := range archives {
		status.TotalSize += archives[i].Size
	}
	status.TotalSizeFormatted = FormatSize(status.TotalSize)
	if len(archives) > 0 {
		newest := archives[0].CreatedAt
		oldest := archives[len(archives)-1].CreatedAt
		status.NewestBackup = &newest
		status.OldestBackup = &oldest
	}
	status.LastRestore = s.lastRestore(ctx)
	status.Recommendations = recommend(archives, status.TotalRecords, s.now(), s.cfg.StaleAfter, int64(s.cfg.LargeDatasetThreshold))

	return status, nil
}

// History returns past backup events, newest first. Without a history
// collaborator it returns an empty list.
func (s *Service) History(ctx context.Context, p Principal, filter audit.QueryFilter) ([]audit.Event, error) {
	if err := s.Authorize(p); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []audit.Event{}, nil
	}
	events, err := s.history.Query(ctx, backupFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to query backup history: %w", err)
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}

// HistoryTotal counts the backup events matching filter, ignoring its
// limit and offset.
func (s *Service) HistoryTotal(ctx context.Context, p Principal, filter audit.QueryFilter) (int64, error) {
	if err := s.Authorize(p); err != nil {
		return 0, err
	}
	if s.history == nil {
		return 0, nil
	}
	filter = backupFilter(filter)
	filter.Limit, filter.Offset = 0, 0
	total, err := s.history.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count backup history: %w", err)
	}
	return total, nil
}

func backupFilter(filter audit.QueryFilter) audit.QueryFilter {
	if len(filter.Types) == 0 {
		filter.Types = audit.BackupEventTypes
	}
	return filter
}

// CleanupScratch removes stale scratch files and reports how many went.
func (s *Service) CleanupScratch(ctx context.Context, p Principal, maxAge time.Duration) (int, error) {
	if err := s.Authorize(p); err != nil {
		return 0, err
	}
	if maxAge <= 0 {
		maxAge = s.cfg.ScratchMaxAge
	}
	removed := s.store.CleanupScratch(maxAge)
	metrics.ScratchFilesRemoved.Add(float64(removed))

	if removed > 0 {
		event := s.event(ctx, audit.EventTypeScratchCleaned, audit.OutcomeSuccess, p, "", "")
		event.Description = fmt.Sprintf("Removed %d stale scratch files", removed)
		s.publish(ctx, event)
	}
	return removed, nil
}

// loadUpload validates the upload's declared size and type, reads it (from
// a zip when needed) and parses the snapshot.
//
//nolint:gosec // G304: up.Path is a spool file created by the store
func (s *Service) loadUpload(up *Upload) (*Snapshot, []string, error) {
	if up.Path == "" {
		return nil, nil, ErrNoFileProvided
	}
	if check := s.store.ValidateUpload(up.FileName, up.ContentType, up.Size); !check.Valid {
		return nil, nil, newError(KindInvalidFile, check.Reason, nil)
	}

	raw, err := s.readUpload(up)
	if err != nil {
		return nil, nil, err
	}

	snap, problems, err := s.validator.ParseDocument(raw)
	if err != nil {
		return nil, nil, newError(KindInvalidBackupFile, ErrInvalidBackupFile.Message, err)
	}
	return snap, problems, nil
}

func (s *Service) readUpload(up *Upload) ([]byte, error) {
	f, err := os.Open(up.Path)
	if err != nil {
		return nil, newError(KindNoFileProvided, ErrNoFileProvided.Message, err)
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup

	limit := s.store.MaxUploadSize()
	raw, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, newError(KindInvalidBackupFile, ErrInvalidBackupFile.Message, err)
	}
	if int64(len(raw)) > limit {
		return nil, newError(KindInvalidFile, fmt.Sprintf("File size exceeds limit of %s", FormatLimit(limit)), nil)
	}

	if bytes.HasPrefix(raw, []byte("PK\x03\x04")) || strings.EqualFold(filepath.Ext(up.FileName), archiveExt) {
		return s.snapshotFromZip(raw, limit*maxDecompressedFactor)
	}
	return raw, nil
}

// snapshotFromZip extracts the snapshot JSON entry of an archive.
func (s *Service) snapshotFromZip(raw []byte, maxSize int64) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, newError(KindInvalidBackupFile, ErrInvalidBackupFile.Message, fmt.Errorf("not a valid zip archive: %w", err))
	}

	var entry *zip.File
	for _, f := range zr.File {
		name := f.Name
		if strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".json") || name == metadataFileName {
			continue
		}
		if entry == nil || strings.HasPrefix(name, archivePrefix) {
			entry = f
		}
	}
	if entry == nil {
		return nil, newError(KindInvalidBackupFile, ErrInvalidBackupFile.Message, errors.New("archive contains no backup JSON"))
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, newError(KindInvalidBackupFile, ErrInvalidBackupFile.Message, err)
	}
	defer rc.Close() //nolint:errcheck // Best effort cleanup

	data, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, newError(KindInvalidBackupFile, ErrInvalidBackupFile.Message, err)
	}
	if int64(len(data)) > maxSize {
		return nil, newError(KindInvalidBackupFile, ErrInvalidBackupFile.Message, errors.New("backup JSON exceeds decompressed size limit"))
	}
	return data, nil
}

func (s *Service) mirrorUpload(ctx context.Context, info *ArchiveInfo) bool {
	if s.mirror == nil {
		return false
	}
	if err := s.mirror.Upload(ctx, info.FileName, info.Path); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("file", info.FileName).Msg("Off-site copy failed, archive kept locally")
		return false
	}
	return true
}

func (s *Service) lastRestore(ctx context.Context) *LastRestore {
	if s.history == nil {
		return nil
	}
	events, err := s.history.Query(ctx, audit.QueryFilter{
		Types: []audit.EventType{audit.EventTypeBackupRestored},
		Limit: 1,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to read restore history")
		return nil
	}
	if len(events) == 0 {
		return nil
	}
	e := events[0]
	last := &LastRestore{RestoredAt: e.Timestamp, RestoredBy: e.Actor.Name}
	if e.Target != nil {
		last.BackupID = e.Target.ID
		last.FileName = e.Target.Name
	}
	return last
}

func (s *Service) refreshGauges() {
	archives, err := s.store.List()
	if err != nil {
		return
	}
	s.updateGauges(archives)
}

func (s *Service) updateGauges(archives []ArchiveEntry) {
	var total int64
	for i := range archives {
		total += archives[i].Size
	}
	metrics.UpdateArchiveGauges(len(archives), total)
}

func (s *Service) event(ctx context.Context, eventType audit.EventType, outcome audit.Outcome, p Principal, fileName, backupID string) *audit.Event {
	e := audit.NewEvent(eventType, outcome, audit.Actor{
		ID:   p.ID,
		Type: "user",
		Name: p.DisplayName(),
		Role: p.Role,
	})
	e.Timestamp = s.now().UTC()
	e.Action = string(eventType)
	e.RequestID = logging.RequestIDFromContext(ctx)
	if fileName != "" || backupID != "" {
		e.Target = &audit.Target{ID: backupID, Type: "archive", Name: fileName}
	}
	return e
}

func (s *Service) failureEvent(ctx context.Context, eventType audit.EventType, p Principal, fileName string, err error) *audit.Event {
	e := s.event(ctx, eventType, audit.OutcomeFailure, p, fileName, "")
	e.Description = MessageOf(err)
	if detail := DetailOf(err); detail != "" {
		e.Description += ": " + detail
	}
	return e
}

func (s *Service) publish(ctx context.Context, e *audit.Event) {
	if s.publisher == nil || e == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", string(e.Type)).Msg("Failed to publish backup event")
	}
}
