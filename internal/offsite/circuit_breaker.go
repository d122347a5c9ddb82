// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package offsite

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/metrics"
)

// Mirror is an off-site archive copy target.
type Mirror interface {
	Upload(ctx context.Context, name, filePath string) error
	Delete(ctx context.Context, name string) error
}

// BreakerSettings tunes the circuit breaker around a Mirror.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// Timeout is how long the circuit stays open before a probe.
	Timeout time.Duration
}

// DefaultBreakerSettings returns production settings. Archive volume is
// low, so the breaker trips on consecutive failures rather than a ratio.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "offsite-s3",
		ConsecutiveFailures: 3,
		Timeout:             5 * time.Minute,
	}
}

// CircuitBreakerMirror stops calling an unavailable object store so that
// backups are not slowed by repeated timeouts.
type CircuitBreakerMirror struct {
	next Mirror
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// NewCircuitBreakerMirror wraps next.
func NewCircuitBreakerMirror(next Mirror, s BreakerSettings) *CircuitBreakerMirror {
	if s.Name == "" {
		s.Name = DefaultBreakerSettings().Name
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= s.ConsecutiveFailures
			if trip {
				logging.Warn().Uint32("failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening off-site circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &CircuitBreakerMirror{next: next, cb: cb, name: s.Name}
}

// Upload copies an archive through the breaker.
func (m *CircuitBreakerMirror) Upload(ctx context.Context, name, filePath string) error {
	return m.execute(func() error { return m.next.Upload(ctx, name, filePath) })
}

// Delete removes an off-site copy through the breaker.
func (m *CircuitBreakerMirror) Delete(ctx context.Context, name string) error {
	return m.execute(func() error { return m.next.Delete(ctx, name) })
}

// State returns the breaker state.
func (m *CircuitBreakerMirror) State() gobreaker.State {
	return m.cb.State()
}

func (m *CircuitBreakerMirror) execute(fn func() error) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(m.name, "rejected").Inc()
			return err
		}
		metrics.CircuitBreakerRequests.WithLabelValues(m.name, "failure").Inc()
		return err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(m.name, "success").Inc()
	return nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
