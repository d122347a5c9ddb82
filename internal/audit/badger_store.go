// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

// Key prefixes for BadgerDB storage. Event keys embed a zero-padded
// nanosecond timestamp so lexical order is chronological order.
const (
	eventKeyPrefix   = "audit:event:"
	eventIDKeyPrefix = "audit:id:"
)

// BadgerStore implements Store on BadgerDB. It is the durable backup
// history behind the status and history endpoints.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadgerStore opens (or creates) the audit journal described by cfg.
func OpenBadgerStore(cfg *config.AuditConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for audit: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Audit journal opened")

	return &BadgerStore{db: db, ownsDB: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves it open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func eventKey(event *Event) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", eventKeyPrefix, event.Timestamp.UnixNano(), event.ID))
}

// Save persists an audit event.
func (s *BadgerStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("audit: nil event")
	}
	if event.ID == "" {
		return fmt.Errorf("audit: event has no id")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := eventKey(event)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set audit event: %w", err)
		}

		// ID index for Get
		if err := txn.Set([]byte(eventIDKeyPrefix+event.ID), key); err != nil {
			return fmt.Errorf("set audit id mapping: %w", err)
		}
		return nil
	})
}

// Get retrieves an event by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Event, error) {
	var event Event

	err := s.db.View(func(txn *badger.Txn) error {
		idItem, err := txn.Get([]byte(eventIDKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get audit id mapping: %w", err)
		}

		key, err := idItem.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get audit event: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &event)
		})
	})
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// Query retrieves events matching the filter, newest first.
func (s *BadgerStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var results []Event
	skipped := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventKeyPrefix)
		seek := append([]byte(eventKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var event Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable audit event")
				continue
			}

			if !matchesFilter(&event, &filter) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}

			results = append(results, event)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	return results, nil
}

// Count returns the number of events matching the filter.
func (s *BadgerStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	var count int64

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(eventKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var event Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				continue
			}
			if matchesFilter(&event, &filter) {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}

	return count, nil
}

// Delete removes events older than the given time.
func (s *BadgerStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	type doomed struct {
		key []byte
		id  string
	}
	var victims []doomed

	cutoff := []byte(fmt.Sprintf("%s%020d", eventKeyPrefix, olderThan.UnixNano()))

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if string(key) >= string(cutoff) {
				break
			}

			var event Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				victims = append(victims, doomed{key: key})
				continue
			}
			victims = append(victims, doomed{key: key, id: event.ID})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan audit events: %w", err)
	}

	if len(victims) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, v := range victims {
		if err := wb.Delete(v.key); err != nil {
			return 0, fmt.Errorf("delete audit event: %w", err)
		}
		if v.id != "" {
			if err := wb.Delete([]byte(eventIDKeyPrefix + v.id)); err != nil {
				return 0, fmt.Errorf("delete audit id mapping: %w", err)
			}
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush audit deletes: %w", err)
	}

	return int64(len(victims)), nil
}
