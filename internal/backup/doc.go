// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package backup implements full-dataset backup and transactional restore
// for the HRMS datastore.
//
// # Overview
//
// A backup is a Snapshot of all thirteen entity types plus metadata,
// packaged as a zip archive. A restore replaces the entire datastore with
// a snapshot inside one transaction: every row of every type is deleted,
// then the snapshot's records are recreated. Either all of it commits or
// nothing changes.
//
// # Architecture
//
//	Service - authorization, mutation lock, metrics, audit events
//	  ├── Exporter  - concurrent read-all per entity type + reference summaries
//	  ├── Packager  - snapshot JSON -> zip (snapshot, metadata.json, README.txt)
//	  ├── Validator - structural check of untrusted snapshot documents
//	  ├── Importer  - delete children-first, recreate parents-first, one tx
//	  └── Store     - archive directory, scratch area, upload checks
//
// All engines are driven by the Registry, the ordered list of EntityType
// entries. Rank gives the recreate order; the delete order is its exact
// reverse, so the two can never drift apart.
//
// # Entity Types
//
//	Rank  Key               Mode  Summaries added on export
//	1     users             one
//	2     settings          bulk
//	3     categories        bulk  parent
//	4     staff             one   manager, category, user
//	5     salaryStructures  one   staff
//	6     loans             one   staff
//	7     loanRepayments    one   loan
//	8     issues            one   staff, assignee
//	9     issueComments     one   author
//	10    attachments       one   uploader
//	11    staffHistory      one   staff, changedByUser
//	12    payrollSnapshots  bulk  createdByUser
//	13    shareableLinks    bulk  createdByUser
//
// Summaries are for human readers of the archive. The importer strips
// every field that is not a canonical column before writing.
//
// # Errors
//
// Every failure surfaced by Service is an *Error with a Kind. KindOf
// extracts it for status mapping, MessageOf gives the caller-safe message,
// and DetailOf gives the underlying cause for engine failures.
//
// # Concurrency
//
// Export reads run concurrently. Create and restore share one in-process
// mutation lock with a bounded wait; a caller that cannot get it in time
// receives ErrOperationInProgress.
//
// # Usage
//
//	reg := backup.DefaultRegistry()
//	store := backup.NewStore(&cfg.Backup)
//	if err := store.EnsureDirectories(); err != nil {
//		return err
//	}
//	svc := backup.NewService(&cfg.Backup, store,
//		backup.NewExporter(db, reg),
//		backup.NewImporter(db, reg),
//		backup.NewPackager(store, reg),
//		enforcer,
//		backup.WithPublisher(bus),
//	)
//
//	result, err := svc.Create(ctx, principal)
package backup
