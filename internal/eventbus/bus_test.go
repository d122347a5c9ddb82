// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/hrmsvault/internal/audit"
	"github.com/tomtom215/hrmsvault/internal/logging"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.CloseTimeout = time.Second
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	return &cfg
}

// startBus runs a bus until the test ends.
func startBus(t *testing.T, store audit.Store) *Bus {
	t.Helper()
	bus, err := New(testConfig(), store, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		bus.Close() //nolint:errcheck // test cleanup
		<-done
	})

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return bus
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBus_PublishJournalsEvent(t *testing.T) {
	store := audit.NewMemoryStore(100)
	bus := startBus(t, store)

	ctx := logging.ContextWithRequestID(context.Background(), "req-42")
	event := audit.NewEvent(audit.EventTypeBackupCreated, audit.OutcomeSuccess, audit.Actor{ID: "u-1", Name: "Ada Admin", Role: "super_admin"})
	event.Target = &audit.Target{ID: "b-1", Type: "archive", Name: "hrms-backup-x.zip"}
	event.RequestID = "req-42"
	event.WithMetadata(map[string]int{"totalRecords": 17})

	if err := bus.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool { return store.Len() == 1 })

	got, err := store.Get(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Type != audit.EventTypeBackupCreated || got.Actor.Name != "Ada Admin" {
		t.Errorf("stored event = %+v", got)
	}
	if got.Target == nil || got.Target.Name != "hrms-backup-x.zip" {
		t.Errorf("stored target = %+v", got.Target)
	}
	if got.RequestID != "req-42" {
		t.Errorf("RequestID = %q", got.RequestID)
	}
	if !got.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, event.Timestamp)
	}
}

// flakyStore fails the first n saves.
type flakyStore struct {
	*audit.MemoryStore
	mu    sync.Mutex
	fails int
	calls int
}

func (s *flakyStore) Save(ctx context.Context, e *audit.Event) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.fails
	s.mu.Unlock()
	if fail {
		return errors.New("journal busy")
	}
	return s.MemoryStore.Save(ctx, e)
}

func TestBus_RetriesStoreFailures(t *testing.T) {
	store := &flakyStore{MemoryStore: audit.NewMemoryStore(10), fails: 2}
	bus := startBus(t, store)

	event := audit.NewEvent(audit.EventTypeBackupDeleted, audit.OutcomeSuccess, audit.Actor{ID: "u-1"})
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool { return store.Len() == 1 })
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.calls != 3 {
		t.Errorf("Save called %d times, want 3", store.calls)
	}
}

func TestBus_HandleJournalDropsUndecodable(t *testing.T) {
	store := audit.NewMemoryStore(10)
	bus, err := New(testConfig(), store, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close() //nolint:errcheck // test cleanup

	if err := bus.handleJournal(message.NewMessage("m-1", []byte("not json"))); err != nil {
		t.Errorf("handleJournal() error = %v, want nil for poison payload", err)
	}
	if store.Len() != 0 {
		t.Error("undecodable payload must not be stored")
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus, err := New(testConfig(), audit.NewMemoryStore(10), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	event := audit.NewEvent(audit.EventTypeBackupCreated, audit.OutcomeSuccess, audit.Actor{})
	if err := bus.Publish(context.Background(), event); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrClosed", err)
	}
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("New() without store should fail")
	}
}
