// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"testing"

	"github.com/tomtom215/hrmsvault/internal/database"
)

func TestDefaultRegistry_Order(t *testing.T) {
	reg := DefaultRegistry()

	wantRecreate := []string{
		EntityUsers, EntitySettings, EntityCategories, EntityStaff,
		EntitySalaryStructures, EntityLoans, EntityLoanRepayments, EntityIssues,
		EntityIssueComments, EntityAttachments, EntityStaffHistory,
		EntityPayrollSnapshots, EntityShareableLinks,
	}
	if reg.Len() != len(wantRecreate) {
		t.Fatalf("Len() = %d, want %d", reg.Len(), len(wantRecreate))
	}

	recreate := reg.RecreateOrder()
	deleteOrder := reg.DeleteOrder()
	for i, key := range wantRecreate {
		if recreate[i].Key != key {
			t.Errorf("RecreateOrder()[%d] = %s, want %s", i, recreate[i].Key, key)
		}
		if recreate[i].Rank != i+1 {
			t.Errorf("%s rank = %d, want %d", key, recreate[i].Rank, i+1)
		}
		if got := deleteOrder[len(deleteOrder)-1-i].Key; got != key {
			t.Errorf("DeleteOrder is not the reverse of RecreateOrder at %d: %s vs %s", i, got, key)
		}
	}
}

func TestDefaultRegistry_BulkTypes(t *testing.T) {
	reg := DefaultRegistry()
	bulk := map[string]bool{
		EntitySettings:         true,
		EntityCategories:       true,
		EntityPayrollSnapshots: true,
		EntityShareableLinks:   true,
	}
	for _, et := range reg.RecreateOrder() {
		if et.Bulk != bulk[et.Key] {
			t.Errorf("%s Bulk = %v, want %v", et.Key, et.Bulk, bulk[et.Key])
		}
	}
}

// Every reference must read a canonical field of its own table, point at a
// registered type ranked no later than itself, and pick canonical fields.
func TestDefaultRegistry_RefsAreConsistent(t *testing.T) {
	reg := DefaultRegistry()
	for _, et := range reg.RecreateOrder() {
		for _, ref := range et.Refs {
			if !et.Table.HasField(ref.Source) {
				t.Errorf("%s.%s: source %s is not a column", et.Key, ref.Field, ref.Source)
			}
			if et.Table.HasField(ref.Field) {
				t.Errorf("%s.%s: summary field collides with a column", et.Key, ref.Field)
			}
			target, ok := reg.Lookup(ref.Target)
			if !ok {
				t.Errorf("%s.%s: unknown target %s", et.Key, ref.Field, ref.Target)
				continue
			}
			if target.Rank > et.Rank {
				t.Errorf("%s (rank %d) references %s (rank %d) created later", et.Key, et.Rank, target.Key, target.Rank)
			}
			for _, f := range ref.Pick {
				if !target.Table.HasField(f) {
					t.Errorf("%s.%s picks %s which %s does not have", et.Key, ref.Field, f, target.Key)
				}
			}
		}
	}
}

func TestEntityType_StripForImport(t *testing.T) {
	reg := DefaultRegistry()
	staff, _ := reg.Lookup(EntityStaff)

	rec := database.Record{
		"id":         "st-2",
		"fullName":   "Alan Turing",
		"managerId":  "st-1",
		"manager":    map[string]interface{}{"id": "st-1", "fullName": "Grace Hopper"},
		"category":   nil,
		"user":       map[string]interface{}{"id": "u-2", "email": "x"},
		"unexpected": true,
	}
	got := staff.StripForImport(rec)

	for _, dropped := range []string{"manager", "category", "user", "unexpected"} {
		if _, ok := got[dropped]; ok {
			t.Errorf("StripForImport kept %q", dropped)
		}
	}
	for _, kept := range []string{"id", "fullName", "managerId"} {
		if got[kept] != rec[kept] {
			t.Errorf("StripForImport()[%q] = %v, want %v", kept, got[kept], rec[kept])
		}
	}
	if _, ok := rec["manager"]; !ok {
		t.Error("StripForImport must not modify its input")
	}
}

func TestNewRegistry_SortsByRank(t *testing.T) {
	users, _ := database.TableByName(database.TableUsers)
	settings, _ := database.TableByName(database.TableSettings)

	reg := NewRegistry([]EntityType{
		{Key: "b", Rank: 2, Table: settings},
		{Key: "a", Rank: 1, Table: users},
	})
	keys := reg.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}
