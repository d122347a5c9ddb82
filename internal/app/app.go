// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package app assembles the backup service graph from configuration. The
// server and the operator CLI share it so both run the same service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/hrmsvault/internal/audit"
	"github.com/tomtom215/hrmsvault/internal/authz"
	"github.com/tomtom215/hrmsvault/internal/backup"
	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/database"
	"github.com/tomtom215/hrmsvault/internal/eventbus"
	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/offsite"
)

// memoryJournalSize bounds the fallback in-memory audit journal.
const memoryJournalSize = 1000

// Options tune Build.
type Options struct {
	// UseEventBus publishes audit events through the Watermill bus. The
	// caller must run App.Bus (the server adds it to its supervisor tree).
	// Otherwise events are saved straight into the journal.
	UseEventBus bool

	// JournalFallback uses an in-memory journal when the Badger journal
	// cannot be opened, for example while a server holds its lock.
	JournalFallback bool

	// Importer options, such as backup.WithProgress.
	ImporterOptions []backup.ImporterOption
}

// App is the assembled service graph.
type App struct {
	Config   *config.Config
	DB       *database.DB
	Store    *backup.Store
	Enforcer *authz.Enforcer
	Journal  audit.Store
	Bus      *eventbus.Bus
	Service  *backup.Service
}

// Build opens the datastore and audit journal and wires the backup service.
// On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close() //nolint:errcheck // already failing
		}
	}()

	a.DB, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	logging.Info().Str("datastore", a.DB.Descriptor()).Str("driver", a.DB.Driver()).Msg("Database initialized")

	a.Store = backup.NewStore(&cfg.Backup)
	if err = a.Store.EnsureDirectories(); err != nil {
		return nil, err
	}

	a.Journal, err = openJournal(&cfg.Audit, opts.JournalFallback)
	if err != nil {
		return nil, err
	}

	a.Enforcer, err = authz.NewEnforcer(cfg.Security.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("initialize authorization: %w", err)
	}

	svcOpts := []backup.Option{backup.WithHistory(a.Journal)}

	if opts.UseEventBus {
		a.Bus, err = eventbus.New(nil, a.Journal, logging.NewWatermillLogger())
		if err != nil {
			return nil, fmt.Errorf("initialize event bus: %w", err)
		}
		svcOpts = append(svcOpts, backup.WithPublisher(a.Bus))
	} else {
		svcOpts = append(svcOpts, backup.WithPublisher(JournalPublisher{Journal: a.Journal}))
	}

	if cfg.Offsite.Enabled {
		mirror, merr := offsite.New(ctx, &cfg.Offsite)
		if merr != nil {
			return nil, merr
		}
		svcOpts = append(svcOpts, backup.WithMirror(offsite.NewCircuitBreakerMirror(mirror, offsite.DefaultBreakerSettings())))
	}

	reg := backup.DefaultRegistry()
	a.Service = backup.NewService(&cfg.Backup, a.Store,
		backup.NewExporter(a.DB, reg),
		backup.NewImporter(a.DB, reg, opts.ImporterOptions...),
		backup.NewPackager(a.Store, reg),
		a.Enforcer,
		svcOpts...,
	)
	return a, nil
}

// openJournal opens the Badger audit journal, optionally falling back to
// memory.
func openJournal(cfg *config.AuditConfig, fallback bool) (audit.Store, error) {
	journal, err := audit.OpenBadgerStore(cfg)
	if err == nil {
		return journal, nil
	}
	if !fallback {
		return nil, fmt.Errorf("open audit journal: %w", err)
	}
	logging.Warn().Err(err).Msg("Audit journal unavailable, recording events in memory only")
	return audit.NewMemoryStore(memoryJournalSize), nil
}

// Close releases the bus, journal and database, in that order. It is safe
// to call on a partially built App.
func (a *App) Close() error {
	var errs []error
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
		a.Bus = nil
	}
	if c, ok := a.Journal.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	a.Journal = nil
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
		a.DB = nil
	}
	return errors.Join(errs...)
}

// JournalPublisher saves events straight into the journal. Used where no
// event bus runs.
type JournalPublisher struct {
	Journal audit.Store
}

// Publish implements backup.Publisher.
func (p JournalPublisher) Publish(ctx context.Context, event *audit.Event) error {
	return p.Journal.Save(ctx, event)
}
