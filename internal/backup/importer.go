// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/hrmsvault/internal/database"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

// Importer replaces the datastore contents with a snapshot.
type Importer struct {
	ds       Datastore
	reg      *Registry
	progress ProgressFunc
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithProgress reports per-entity progress while records are recreated.
func WithProgress(fn ProgressFunc) ImporterOption {
	return func(im *Importer) {
		im.progress = fn
	}
}

// NewImporter creates an import engine over ds.
func NewImporter(ds Datastore, reg *Registry, opts ...ImporterOption) *Importer {
	im := &Importer{ds: ds, reg: reg}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportAll deletes every row of every entity type, children first, then
// recreates the snapshot's records, parents first, in one transaction.
// Either everything commits or the datastore is left untouched.
//
// The snapshot must already have passed validation. Once the transaction
// has begun it runs to commit or rollback even if ctx is cancelled.
func (im *Importer) ImportAll(ctx context.Context, snap *Snapshot) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{Restored: make(map[string]int, im.reg.Len())}

	txCtx := context.WithoutCancel(ctx)
	err := im.ds.WithTx(txCtx, func(tx *sql.Tx) error {
		for _, et := range im.reg.DeleteOrder() {
			if err := database.DeleteAll(txCtx, tx, et.Table); err != nil {
				return fmt.Errorf("clear %s: %w", et.Key, err)
			}
		}

		for _, et := range im.reg.RecreateOrder() {
			n, err := im.recreate(txCtx, tx, et, snap.Data[et.Key])
			if err != nil {
				return err
			}
			result.Restored[et.Key] = n
			result.Total += n
		}
		return nil
	})
	if err != nil {
		logging.Error().Err(err).Str("backup_id", snap.Metadata.BackupID).Msg("Import rolled back")
		return nil, newError(KindImportFailed, ErrImportFailed.Message, err)
	}

	result.Duration = time.Since(start)
	logging.Info().
		Str("backup_id", snap.Metadata.BackupID).
		Int("records", result.Total).
		Dur("duration", result.Duration).
		Msg("Import committed")

	return result, nil
}

func (im *Importer) recreate(ctx context.Context, tx *sql.Tx, et EntityType, recs []database.Record) (int, error) {
	total := len(recs)
	im.report(et.Key, 0, total)
	if total == 0 {
		return 0, nil
	}

	stripped := make([]database.Record, total)
	for i, rec := range recs {
		stripped[i] = et.StripForImport(rec)
	}

	if et.Bulk {
		if err := database.InsertMany(ctx, tx, et.Table, stripped); err != nil {
			return 0, fmt.Errorf("recreate %s: %w", et.Key, err)
		}
		im.report(et.Key, total, total)
		return total, nil
	}

	for i, rec := range stripped {
		if err := database.InsertOne(ctx, tx, et.Table, rec); err != nil {
			return 0, fmt.Errorf("recreate %s record %d (id %v): %w", et.Key, i, rec["id"], err)
		}
		im.report(et.Key, i+1, total)
	}
	return total, nil
}

func (im *Importer) report(entity string, done, total int) {
	if im.progress != nil {
		im.progress(entity, done, total)
	}
}
