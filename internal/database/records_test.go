// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package database

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestSchemaShape(t *testing.T) {
	if len(Tables) != 13 {
		t.Fatalf("schema has %d tables, want 13", len(Tables))
	}
	seen := make(map[string]bool)
	for _, tbl := range Tables {
		if seen[tbl.Name] {
			t.Errorf("duplicate table %s", tbl.Name)
		}
		seen[tbl.Name] = true
		if len(tbl.Columns) == 0 || tbl.Columns[0].Name != "id" || !tbl.Columns[0].Required {
			t.Errorf("table %s must start with a required id column", tbl.Name)
		}
		if !tbl.HasField("id") {
			t.Errorf("table %s HasField(id) = false", tbl.Name)
		}
	}
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"id":            "id",
		"full_name":     "fullName",
		"password_hash": "passwordHash",
		"last_login_at": "lastLoginAt",
	}
	for in, want := range tests {
		if got := camelCase(in); got != want {
			t.Errorf("camelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoerce(t *testing.T) {
	ts := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		kind    Kind
		in      interface{}
		want    interface{}
		wantErr bool
	}{
		{"nil passes through", KindInt, nil, nil, false},
		{"string", KindString, "abc", "abc", false},
		{"number as string", KindString, float64(7), "7", false},
		{"json float to int", KindInt, float64(42), int64(42), false},
		{"fractional int rejected", KindInt, 1.5, nil, true},
		{"string int", KindInt, "12", int64(12), false},
		{"int to float", KindFloat, int64(3), float64(3), false},
		{"json number float", KindFloat, json.Number("2.5"), 2.5, false},
		{"bool", KindBool, true, true, false},
		{"string bool", KindBool, "false", false, false},
		{"bool from map rejected", KindBool, map[string]interface{}{}, nil, true},
		{"rfc3339 time", KindTime, "2025-06-30T12:00:00Z", ts, false},
		{"date only", KindTime, "2025-06-30", time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), false},
		{"native time", KindTime, ts, ts, false},
		{"bad time", KindTime, "yesterday", nil, true},
		{"json object", KindJSON, map[string]interface{}{"a": float64(1)}, `{"a":1}`, false},
		{"json string", KindJSON, "hi", `"hi"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.kind, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Coerce() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestInsertListRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	payroll := mustTable(t, TablePayrollSnapshots)
	created := time.Date(2025, 1, 31, 18, 30, 0, 0, time.UTC)

	in := Record{
		"id":            "p1",
		"period":        "2025-01",
		"staffCount":    float64(12),
		"totalGross":    125000.5,
		"totalNet":      "99000.25",
		"data":          map[string]interface{}{"currency": "KES", "lines": []interface{}{float64(1), float64(2)}},
		"createdBy":     "u1",
		"createdAt":     "2025-01-31T18:30:00Z",
		"createdByUser": map[string]interface{}{"id": "u1", "name": "Admin"},
	}
	if err := InsertOne(ctx, db.Conn(), payroll, in); err != nil {
		t.Fatalf("InsertOne() error = %v", err)
	}

	recs, err := ListAll(ctx, db.Conn(), payroll)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ListAll() returned %d records, want 1", len(recs))
	}
	got := recs[0]

	if got["staffCount"] != int64(12) {
		t.Errorf("staffCount = %#v, want int64(12)", got["staffCount"])
	}
	if got["totalNet"] != 99000.25 {
		t.Errorf("totalNet = %#v, want 99000.25", got["totalNet"])
	}
	if got["createdAt"] != created {
		t.Errorf("createdAt = %v, want %v", got["createdAt"], created)
	}
	data, ok := got["data"].(map[string]interface{})
	if !ok || data["currency"] != "KES" {
		t.Errorf("data = %#v, want decoded object", got["data"])
	}
	if _, ok := got["createdByUser"]; ok {
		t.Error("non-column field createdByUser must not be persisted")
	}
}

func TestInsertManyChunks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	settings := mustTable(t, TableSettings)

	recs := make([]Record, 1234)
	for i := range recs {
		recs[i] = Record{"id": fmt.Sprintf("s%05d", i), "key": fmt.Sprintf("k%d", i), "value": "v"}
	}
	if err := InsertMany(ctx, db.Conn(), settings, recs); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}

	n, err := Count(ctx, db.Conn(), settings)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1234 {
		t.Errorf("Count() = %d, want 1234", n)
	}

	listed, err := ListAll(ctx, db.Conn(), settings)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if listed[0]["id"] != "s00000" || listed[len(listed)-1]["id"] != "s01233" {
		t.Errorf("ListAll() not ordered by id: first=%v last=%v", listed[0]["id"], listed[len(listed)-1]["id"])
	}

	if err := DeleteAll(ctx, db.Conn(), settings); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if n, _ := Count(ctx, db.Conn(), settings); n != 0 {
		t.Errorf("Count() after DeleteAll = %d, want 0", n)
	}
}

func TestInsertManyEmpty(t *testing.T) {
	// No statement is issued, so a nil querier is never touched.
	if err := InsertMany(context.Background(), nil, Tables[0], nil); err != nil {
		t.Errorf("InsertMany(nil) error = %v", err)
	}
}

func TestInsertRejectsUncoercibleValue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	loans := mustTable(t, TableLoans)

	err := InsertOne(ctx, db.Conn(), loans, Record{"id": "l1", "amount": "lots"})
	if err == nil {
		t.Fatal("expected coercion error for amount")
	}
}
