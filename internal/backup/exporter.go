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

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/hrmsvault/internal/database"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

// Datastore is the storage collaborator of the export and import engines.
// *database.DB satisfies it.
type Datastore interface {
	// Descriptor returns the connection descriptor with credentials masked.
	Descriptor() string
	// Conn returns the pool used for read-only queries.
	Conn() *sql.DB
	// WithTx runs fn in one transaction, committing only if fn returns nil.
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Exporter reads every registered entity type into a Snapshot.
type Exporter struct {
	ds    Datastore
	reg   *Registry
	now   func() time.Time
	newID func() string
}

// NewExporter creates an export engine over ds.
func NewExporter(ds Datastore, reg *Registry) *Exporter {
	return &Exporter{
		ds:    ds,
		reg:   reg,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Registry returns the entity registry the exporter reads.
func (e *Exporter) Registry() *Registry {
	return e.reg
}

// ExportAll reads all entity types concurrently and returns a fully
// populated snapshot. Any read failure fails the whole export.
func (e *Exporter) ExportAll(ctx context.Context, createdBy string) (*Snapshot, error) {
	if createdBy == "" {
		createdBy = DefaultCreatedBy
	}

	types := e.reg.RecreateOrder()
	results := make([][]database.Record, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, et := range types {
		g.Go(func() error {
			recs, err := database.ListAll(gctx, e.ds.Conn(), et.Table)
			if err != nil {
				return fmt.Errorf("export %s: %w", et.Key, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, newError(KindExportFailed, ErrExportFailed.Message, err)
	}

	data := make(map[string][]database.Record, len(types))
	for i, et := range types {
		data[et.Key] = results[i]
	}
	enrich(types, data)

	meta := Metadata{
		Version:   SchemaVersion,
		Timestamp: e.now().UTC().Format(time.RFC3339Nano),
		Database:  database.MaskDSN(e.ds.Descriptor()),
		BackupID:  e.newID(),
		CreatedBy: createdBy,
		Tables:    make(map[string]int, len(types)),
	}
	for _, et := range types {
		n := len(data[et.Key])
		meta.Tables[et.Key] = n
		meta.TotalRecords += n
	}

	logging.Debug().
		Str("backup_id", meta.BackupID).
		Int("total_records", meta.TotalRecords).
		Msg("Snapshot exported")

	return &Snapshot{Metadata: meta, Data: data}, nil
}

// Counts returns the live record count of every entity type keyed by
// entity key.
func (e *Exporter) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, e.reg.Len())
	for _, et := range e.reg.RecreateOrder() {
		n, err := database.Count(ctx, e.ds.Conn(), et.Table)
		if err != nil {
			return nil, err
		}
		counts[et.Key] = n
	}
	return counts, nil
}

// enrich attaches the registry's reference summaries. Indexes are built
// from canonical fields before any record is modified, so a summary never
// carries another summary.
func enrich(types []EntityType, data map[string][]database.Record) {
	indexes := make(map[string]map[string]database.Record)
	for _, et := range types {
		for _, ref := range et.Refs {
			if _, ok := indexes[ref.Target]; ok {
				continue
			}
			idx := make(map[string]database.Record, len(data[ref.Target]))
			for _, rec := range data[ref.Target] {
				if id, ok := rec["id"].(string); ok {
					idx[id] = rec
				}
			}
			indexes[ref.Target] = idx
		}
	}

	type attachment struct {
		rec     database.Record
		field   string
		summary database.Record
	}
	var pending []attachment

	for _, et := range types {
		for _, ref := range et.Refs {
			idx := indexes[ref.Target]
			for _, rec := range data[et.Key] {
				var summary database.Record
				if fk, ok := rec[ref.Source].(string); ok && fk != "" {
					if target, found := idx[fk]; found {
						summary = make(database.Record, len(ref.Pick))
						for _, f := range ref.Pick {
							summary[f] = target[f]
						}
					}
				}
				pending = append(pending, attachment{rec: rec, field: ref.Field, summary: summary})
			}
		}
	}

	for _, a := range pending {
		if a.summary == nil {
			a.rec[a.field] = nil
			continue
		}
		a.rec[a.field] = a.summary
	}
}
