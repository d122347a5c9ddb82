// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ErrEventNotFound is returned by Store.Get when no event has the given ID.
var ErrEventNotFound = errors.New("audit event not found")

// EventType categorizes audit events.
type EventType string

const (
	EventTypeBackupCreated       EventType = "backup.created"
	EventTypeBackupCreateFailed  EventType = "backup.create_failed"
	EventTypeBackupDeleted       EventType = "backup.deleted"
	EventTypeBackupRestored      EventType = "backup.restored"
	EventTypeBackupRestoreFailed EventType = "backup.restore_failed"
	EventTypeScratchCleaned      EventType = "backup.scratch_cleaned"
)

// BackupEventTypes lists every event type the backup service emits.
var BackupEventTypes = []EventType{
	EventTypeBackupCreated,
	EventTypeBackupCreateFailed,
	EventTypeBackupDeleted,
	EventTypeBackupRestored,
	EventTypeBackupRestoreFailed,
	EventTypeScratchCleaned,
}

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event represents a backup audit event.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Timestamp when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// Severity of the event.
	Severity Severity `json:"severity"`

	// Outcome indicates success or failure.
	Outcome Outcome `json:"outcome"`

	// Actor who performed the action.
	Actor Actor `json:"actor"`

	// Target is the archive the action touched, when there is one.
	Target *Target `json:"target,omitempty"`

	// Action describes what was done.
	Action string `json:"action"`

	// Description provides human-readable details.
	Description string `json:"description"`

	// Metadata contains event-specific details such as record counts.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// RequestID from the originating HTTP request.
	RequestID string `json:"request_id,omitempty"`
}

// Actor represents who performed an action.
type Actor struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Target represents the object of an action.
type Target struct {
	// ID of the target, the backup id when known.
	ID string `json:"id"`

	// Type of target (archive, upload, scratch).
	Type string `json:"type"`

	// Name is the archive file name.
	Name string `json:"name,omitempty"`
}

// NewEvent returns an event with a fresh ID and the current UTC time.
// Severity follows the outcome.
func NewEvent(eventType EventType, outcome Outcome, actor Actor) *Event {
	severity := SeverityInfo
	if outcome == OutcomeFailure {
		severity = SeverityError
	}
	return &Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Severity:  severity,
		Outcome:   outcome,
		Actor:     actor,
	}
}

// WithMetadata encodes v into the event metadata. Encoding failures leave an
// empty object.
func (e *Event) WithMetadata(v interface{}) *Event {
	e.Metadata = mustJSON(v)
	return e
}

// mustJSON converts a value to JSON, returning empty object on error.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*Event, error)

	// Query retrieves events matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than the retention period.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// Types filters by event types.
	Types []EventType `json:"types,omitempty" validate:"omitempty,dive,required"`

	// Outcomes filters by outcome.
	Outcomes []Outcome `json:"outcomes,omitempty" validate:"omitempty,dive,oneof=success failure"`

	// ActorID filters by actor ID.
	ActorID string `json:"actor_id,omitempty"`

	// TargetName filters by archive file name.
	TargetName string `json:"target_name,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// RequestID filters by request ID.
	RequestID string `json:"request_id,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty" validate:"gte=0,lte=1000"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty" validate:"gte=0"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		Types: BackupEventTypes,
		Limit: 100,
	}
}

// matchesFilter returns true if the event matches all filter criteria.
// Limit and Offset are applied by the caller.
func matchesFilter(event *Event, filter *QueryFilter) bool {
	if len(filter.Types) > 0 && !containsType(filter.Types, event.Type) {
		return false
	}
	if len(filter.Outcomes) > 0 {
		found := false
		for _, o := range filter.Outcomes {
			if event.Outcome == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.ActorID != "" && event.Actor.ID != filter.ActorID {
		return false
	}
	if filter.TargetName != "" {
		if event.Target == nil || event.Target.Name != filter.TargetName {
			return false
		}
	}

	if filter.StartTime != nil && event.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && event.Timestamp.After(*filter.EndTime) {
		return false
	}

	if filter.RequestID != "" && event.RequestID != filter.RequestID {
		return false
	}

	return true
}

func containsType(types []EventType, t EventType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
