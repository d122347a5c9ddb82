// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package services

import (
	"context"
	"time"

	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/metrics"
)

// ScratchCleaner removes stale scratch and upload files.
// Satisfied by *backup.Store.
type ScratchCleaner interface {
	CleanupScratch(maxAge time.Duration) int
}

// JournalPruner drops audit events older than a cutoff.
// Satisfied by audit.Store.
type JournalPruner interface {
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// ScratchJanitorService sweeps abandoned scratch files left by interrupted
// exports and uploads. It sweeps once at start and then every interval.
// With a journal attached it also prunes audit events past retention.
type ScratchJanitorService struct {
	cleaner  ScratchCleaner
	maxAge   time.Duration
	interval time.Duration

	journal   JournalPruner
	retention time.Duration
}

// NewScratchJanitorService creates a janitor. A non-positive interval
// defaults to maxAge.
func NewScratchJanitorService(cleaner ScratchCleaner, maxAge, interval time.Duration) *ScratchJanitorService {
	if interval <= 0 {
		interval = maxAge
	}
	return &ScratchJanitorService{
		cleaner:  cleaner,
		maxAge:   maxAge,
		interval: interval,
	}
}

// WithJournalRetention prunes journal events older than retention on every
// sweep. A non-positive retention disables pruning.
func (j *ScratchJanitorService) WithJournalRetention(journal JournalPruner, retention time.Duration) *ScratchJanitorService {
	j.journal = journal
	j.retention = retention
	return j
}

// Serve implements suture.Service.
func (j *ScratchJanitorService) Serve(ctx context.Context) error {
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *ScratchJanitorService) sweep(ctx context.Context) {
	removed := j.cleaner.CleanupScratch(j.maxAge)
	if removed > 0 {
		metrics.ScratchFilesRemoved.Add(float64(removed))
		logging.Debug().Int("removed", removed).Msg("Scratch janitor sweep")
	}

	if j.journal == nil || j.retention <= 0 {
		return
	}
	pruned, err := j.journal.Delete(ctx, time.Now().Add(-j.retention))
	if err != nil {
		logging.Warn().Err(err).Msg("Audit journal prune failed")
		return
	}
	if pruned > 0 {
		metrics.AuditEventsPruned.Add(float64(pruned))
		logging.Info().Int64("pruned", pruned).Dur("retention", j.retention).Msg("Pruned audit journal")
	}
}

func (j *ScratchJanitorService) String() string {
	return "scratch-janitor"
}
