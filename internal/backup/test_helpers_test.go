// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/audit"
	"github.com/tomtom215/hrmsvault/internal/config"
	"github.com/tomtom215/hrmsvault/internal/database"
)

// testDBSemaphore serializes DuckDB usage across tests, held for the whole
// test and released by t.Cleanup.
var testDBSemaphore = make(chan struct{}, 1)

var (
	adminPrincipal  = Principal{ID: "u-1", Name: "Ada Admin", Role: RoleSuperAdmin}
	viewerPrincipal = Principal{ID: "u-2", Name: "Hal Manager", Role: "hr_manager"}
)

// testEnv holds the common test environment setup
type testEnv struct {
	cfg       config.BackupConfig
	db        *database.DB
	reg       *Registry
	store     *Store
	exporter  *Exporter
	importer  *Importer
	packager  *Packager
	publisher *fakePublisher
	mirror    *fakeMirror
	history   *audit.MemoryStore
	svc       *Service
}

// newTestEnv creates a migrated in-memory database, a store under
// t.TempDir() and a service with fake collaborators.
func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	root := t.TempDir()
	cfg := config.BackupConfig{
		Dir:                   filepath.Join(root, "backups"),
		ScratchDir:            filepath.Join(root, "backups", "tmp"),
		MaxUploadSize:         config.MaxUploadSize,
		ScratchMaxAge:         time.Hour,
		LockTimeout:           100 * time.Millisecond,
		StaleAfter:            7 * 24 * time.Hour,
		LargeDatasetThreshold: 10000,
	}

	reg := DefaultRegistry()
	store := NewStore(&cfg)
	if err := store.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	env := &testEnv{
		cfg:       cfg,
		db:        db,
		reg:       reg,
		store:     store,
		exporter:  NewExporter(db, reg),
		importer:  NewImporter(db, reg),
		packager:  NewPackager(store, reg),
		publisher: &fakePublisher{},
		mirror:    &fakeMirror{},
		history:   audit.NewMemoryStore(100),
	}

	all := []Option{
		WithPublisher(env.publisher),
		WithMirror(env.mirror),
		WithHistory(env.history),
	}
	all = append(all, opts...)
	env.svc = NewService(&cfg, store, env.exporter, env.importer, env.packager, roleAuthorizer{RoleSuperAdmin: true}, all...)
	return env
}

// setupTestDB creates a migrated in-memory DuckDB database.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := database.New(&config.DatabaseConfig{URL: ":memory:", MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close() //nolint:errcheck // closed twice by some tests
	})
	return db
}

var seedTime = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

// seedRecords returns a small dataset touching every entity type and every
// export-time reference.
func seedRecords() map[string][]database.Record {
	t0 := seedTime
	return map[string][]database.Record{
		EntityUsers: {
			{"id": "u-1", "email": "ada@example.com", "name": "Ada Admin", "role": "super_admin", "passwordHash": "$2a$10$hash1", "isActive": true, "createdAt": t0},
			{"id": "u-2", "email": "hal@example.com", "name": "Hal Manager", "role": "hr_manager", "passwordHash": "$2a$10$hash2", "isActive": false, "lastLoginAt": t0.Add(time.Hour), "createdAt": t0, "updatedAt": t0.Add(2 * time.Hour)},
		},
		EntitySettings: {
			{"id": "s-1", "key": "company_name", "value": "Acme Ltd", "description": "Shown on payslips", "updatedAt": t0},
			{"id": "s-2", "key": "currency", "value": "NGN"},
		},
		EntityCategories: {
			{"id": "c-1", "name": "Engineering", "description": "Builders", "createdAt": t0},
			{"id": "c-2", "name": "Platform", "parentId": "c-1", "createdAt": t0},
		},
		EntityStaff: {
			{"id": "st-1", "fullName": "Grace Hopper", "email": "grace@example.com", "position": "CTO", "department": "Engineering", "categoryId": "c-1", "userId": "u-1", "hireDate": t0.AddDate(-3, 0, 0), "status": "active", "createdAt": t0},
			{"id": "st-2", "fullName": "Alan Turing", "phone": "+2348000000000", "position": "Engineer", "categoryId": "c-2", "managerId": "st-1", "userId": "u-2", "status": "active", "createdAt": t0, "updatedAt": t0},
		},
		EntitySalaryStructures: {
			{"id": "ss-1", "staffId": "st-1", "basicSalary": 5000.5, "allowances": map[string]interface{}{"housing": 200.0, "transport": 50.0}, "deductions": map[string]interface{}{"tax": 150.0}, "effectiveDate": t0, "createdAt": t0},
		},
		EntityLoans: {
			{"id": "l-1", "staffId": "st-2", "amount": 1200.0, "interestRate": 0.05, "balance": 800.0, "installments": int64(12), "status": "active", "issuedAt": t0, "dueDate": t0.AddDate(1, 0, 0), "createdAt": t0},
		},
		EntityLoanRepayments: {
			{"id": "lr-1", "loanId": "l-1", "amount": 400.0, "paidAt": t0.AddDate(0, 1, 0), "note": "January deduction"},
		},
		EntityIssues: {
			{"id": "i-1", "staffId": "st-2", "assigneeId": "u-1", "title": "Payslip mismatch", "description": "Allowance missing", "status": "open", "priority": "high", "createdAt": t0},
		},
		EntityIssueComments: {
			{"id": "ic-1", "issueId": "i-1", "authorId": "u-1", "body": "Looking into it", "createdAt": t0.Add(time.Hour)},
		},
		EntityAttachments: {
			{"id": "a-1", "issueId": "i-1", "uploaderId": "u-2", "fileName": "payslip.pdf", "mimeType": "application/pdf", "sizeBytes": int64(2048), "storagePath": "uploads/a-1.pdf", "createdAt": t0},
		},
		EntityStaffHistory: {
			{"id": "sh-1", "staffId": "st-2", "changedBy": "u-1", "field": "position", "oldValue": "Intern", "newValue": "Engineer", "changedAt": t0},
		},
		EntityPayrollSnapshots: {
			{"id": "ps-1", "period": "2026-01", "staffCount": int64(2), "totalGross": 9000.0, "totalNet": 7600.0, "data": map[string]interface{}{"lines": []interface{}{"st-1", "st-2"}}, "createdBy": "u-1", "createdAt": t0},
		},
		EntityShareableLinks: {
			{"id": "sl-1", "token": "tok-abc", "resource": "organogram", "isActive": true, "createdBy": "u-1", "createdAt": t0},
		},
	}
}

// seed writes seedRecords into db.
func seed(t *testing.T, db *database.DB, reg *Registry) {
	t.Helper()
	ctx := context.Background()
	data := seedRecords()
	for _, et := range reg.RecreateOrder() {
		if err := database.InsertMany(ctx, db.Conn(), et.Table, data[et.Key]); err != nil {
			t.Fatalf("seed %s: %v", et.Key, err)
		}
	}
}

// canonical renders every record of snap, stripped of summaries, keyed by
// entity key then id. It is the set view used for equality checks.
func canonical(t *testing.T, reg *Registry, snap *Snapshot) map[string]map[string]string {
	t.Helper()
	out := make(map[string]map[string]string, reg.Len())
	for _, et := range reg.RecreateOrder() {
		set := make(map[string]string)
		for _, rec := range snap.Data[et.Key] {
			raw, err := json.Marshal(et.StripForImport(rec))
			if err != nil {
				t.Fatalf("marshal %s record: %v", et.Key, err)
			}
			id, _ := rec["id"].(string)
			set[id] = string(raw)
		}
		out[et.Key] = set
	}
	return out
}

// dbState exports the current datastore contents in canonical form.
func (e *testEnv) dbState(t *testing.T) map[string]map[string]string {
	t.Helper()
	snap, err := e.exporter.ExportAll(context.Background(), "")
	if err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	return canonical(t, e.reg, snap)
}

// writeUpload spools data as an upload in the store's uploads directory.
func (e *testEnv) writeUpload(t *testing.T, name, contentType string, data []byte) *Upload {
	t.Helper()
	f, err := e.store.CreateUpload()
	if err != nil {
		t.Fatalf("CreateUpload() error = %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close upload: %v", err)
	}
	return &Upload{FileName: name, ContentType: contentType, Size: int64(len(data)), Path: f.Name()}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, want, err)
	}
}

// roleAuthorizer allows the listed roles.
type roleAuthorizer map[string]bool

func (a roleAuthorizer) Enforce(subject, object, action string) (bool, error) {
	return object == PolicyObject && action == PolicyAction && a[subject], nil
}

// failingAuthorizer always errors.
type failingAuthorizer struct{}

func (failingAuthorizer) Enforce(string, string, string) (bool, error) {
	return false, errors.New("policy store unavailable")
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (p *fakePublisher) Publish(_ context.Context, e *audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) types() []audit.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audit.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fakeMirror records off-site calls and optionally fails them.
type fakeMirror struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	err      error
}

func (m *fakeMirror) Upload(_ context.Context, name, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.uploaded = append(m.uploaded, name)
	return nil
}

func (m *fakeMirror) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, name)
	return nil
}

// maskedDatastore reports a credential-bearing descriptor.
type maskedDatastore struct {
	*database.DB
	descriptor string
}

func (m maskedDatastore) Descriptor() string { return m.descriptor }
