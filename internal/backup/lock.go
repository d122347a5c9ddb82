// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/metrics"
)

// DefaultLockTimeout bounds the wait for the mutation lock.
const DefaultLockTimeout = 30 * time.Second

// mutationLock admits one create or restore at a time within the process.
// Waiters give up after timeout.
type mutationLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newMutationLock(timeout time.Duration) *mutationLock {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &mutationLock{sem: semaphore.NewWeighted(1), timeout: timeout}
}

// acquire waits for the lock. The returned release must be called exactly
// once.
func (l *mutationLock) acquire(ctx context.Context, operation string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		metrics.RecordLockWait(operation, false)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Warn().
			Str("operation", operation).
			Dur("timeout", l.timeout).
			Msg("Backup operation rejected, another operation holds the lock")
		return nil, ErrOperationInProgress
	}

	metrics.RecordLockWait(operation, true)
	return func() { l.sem.Release(1) }, nil
}
