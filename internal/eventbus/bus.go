// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

// Package eventbus carries backup lifecycle events from the backup service
// to the audit journal over an in-process Watermill pub/sub.
//
// The service publishes and returns immediately; a router handler decodes
// each message and saves it to the audit store. Handler failures are
// retried with backoff before the message is dropped and logged.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/audit"
	"github.com/tomtom215/hrmsvault/internal/logging"
	"github.com/tomtom215/hrmsvault/internal/metrics"
)

// TopicBackupEvents is the topic backup lifecycle events are published on.
const TopicBackupEvents = "hrms.backup.events"

// Message metadata keys.
const (
	MetadataEventType = "event_type"
	MetadataRequestID = "request_id"
)

const journalHandlerName = "audit-journal"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus is closed")

// Config holds router settings.
type Config struct {
	// CloseTimeout is how long to wait for in-flight handlers on Close.
	CloseTimeout time.Duration

	// OutputBuffer is the per-subscriber channel buffer.
	OutputBuffer int64

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CloseTimeout:         10 * time.Second,
		OutputBuffer:         256,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
	}
}

// Bus publishes audit events and journals them.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	store  audit.Store
	logger watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// New creates a bus journaling into store. A nil logger uses the zerolog
// bridge.
func New(cfg *Config, store audit.Store, logger watermill.LoggerAdapter) (*Bus, error) {
	if store == nil {
		return nil, errors.New("eventbus: audit store is required")
	}
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputBuffer,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Recoverer first so panics inside retries are still caught.
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      2.0,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	b := &Bus{
		pubsub: pubsub,
		router: router,
		store:  store,
		logger: logger,
	}
	router.AddConsumerHandler(journalHandlerName, TopicBackupEvents, pubsub, b.handleJournal)

	return b, nil
}

// Publish sends event to the journal. It does not wait for the event to be
// stored.
func (b *Bus) Publish(ctx context.Context, event *audit.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(MetadataEventType, string(event.Type))
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		msg.Metadata.Set(MetadataRequestID, requestID)
	}

	if err := b.pubsub.Publish(TopicBackupEvents, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
	return nil
}

// handleJournal stores one event. Undecodable payloads are dropped; a
// store failure is returned so the retry middleware can try again.
func (b *Bus) handleJournal(msg *message.Message) error {
	var event audit.Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		metrics.EventsConsumed.WithLabelValues("failed").Inc()
		b.logger.Error("Dropping undecodable audit event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return nil
	}

	if err := b.store.Save(msg.Context(), &event); err != nil {
		metrics.EventsConsumed.WithLabelValues("failed").Inc()
		return fmt.Errorf("save audit event %s: %w", event.ID, err)
	}

	metrics.EventsConsumed.WithLabelValues("stored").Inc()
	b.logger.Debug("Audit event stored", watermill.LogFields{
		"event_id":   event.ID,
		"event_type": string(event.Type),
		"request_id": msg.Metadata.Get(MetadataRequestID),
	})
	return nil
}

// Run starts the router and blocks until ctx is cancelled or Close is
// called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running returns a channel closed once handlers are subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Serve implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	logging.Info().Str("topic", TopicBackupEvents).Msg("Event router starting")
	err := b.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// String identifies the bus in supervisor logs.
func (b *Bus) String() string {
	return "eventbus"
}

// Close stops accepting events, drains in-flight handlers and closes the
// pub/sub.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	routerErr := b.router.Close()
	pubsubErr := b.pubsub.Close()
	if routerErr != nil {
		return fmt.Errorf("close router: %w", routerErr)
	}
	if pubsubErr != nil {
		return fmt.Errorf("close pubsub: %w", pubsubErr)
	}
	return nil
}
