// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package audit records the history of backup operations.
//
// Every create, delete and restore performed by the backup service produces
// an Event. Events travel over the in-process event bus and are written to
// a Store by the audit router handler:
//
//	backup.Service -> eventbus.Publisher -> watermill router -> audit.Store
//
// # Event Types
//
//   - backup.created, backup.create_failed: archive creation
//   - backup.deleted: archive removal
//   - backup.restored, backup.restore_failed: restore attempts
//   - backup.scratch_cleaned: stale scratch files removed
//
// # Stores
//
// BadgerStore is the durable journal. Event keys carry a zero-padded
// nanosecond timestamp so a reverse prefix scan yields newest-first results
// without a secondary index. MemoryStore keeps a bounded slice and is used
// in tests and when no journal path is configured.
//
// # Usage
//
//	store, err := audit.OpenBadgerStore(&cfg.Audit)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	events, err := store.Query(ctx, audit.QueryFilter{
//	    Types: []audit.EventType{audit.EventTypeBackupRestored},
//	    Limit: 1,
//	})
package audit
