// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"fmt"
	"sort"

	"github.com/tomtom215/hrmsvault/internal/database"
)

// Entity type keys as they appear in snapshot data and metadata.tables.
const (
	EntityUsers            = "users"
	EntitySettings         = "settings"
	EntityCategories       = "categories"
	EntityStaff            = "staff"
	EntitySalaryStructures = "salaryStructures"
	EntityLoans            = "loans"
	EntityLoanRepayments   = "loanRepayments"
	EntityIssues           = "issues"
	EntityIssueComments    = "issueComments"
	EntityAttachments      = "attachments"
	EntityStaffHistory     = "staffHistory"
	EntityPayrollSnapshots = "payrollSnapshots"
	EntityShareableLinks   = "shareableLinks"
)

// Ref describes one read-only summary embedded into exported records. The
// record's Source field is looked up in the Target entity by id and the
// Pick fields of the match are attached under Field.
type Ref struct {
	Field  string
	Source string
	Target string
	Pick   []string
}

// EntityType is one registry entry. Rank orders recreation (ascending) and
// deletion (descending) so parents exist before children reference them.
type EntityType struct {
	Key   string
	Rank  int
	Table database.Table
	Bulk  bool
	Refs  []Ref
}

// StripForImport returns a copy of rec holding only the table's canonical
// fields. Export-time summaries and unknown keys are dropped.
func (e EntityType) StripForImport(rec database.Record) database.Record {
	out := make(database.Record, len(e.Table.Columns))
	for k, v := range rec {
		if e.Table.HasField(k) {
			out[k] = v
		}
	}
	return out
}

// Registry is the ordered set of entity types taking part in backups.
type Registry struct {
	types []EntityType
	byKey map[string]EntityType
}

func mustTable(name string) database.Table {
	t, ok := database.TableByName(name)
	if !ok {
		panic(fmt.Sprintf("backup: no schema table %q", name))
	}
	return t
}

var (
	userName   = []string{"id", "name"}
	staffName  = []string{"id", "fullName"}
	categoryID = []string{"id", "name"}
)

// DefaultRegistry returns the thirteen HRMS entity types.
func DefaultRegistry() *Registry {
	return NewRegistry([]EntityType{
		{Key: EntityUsers, Rank: 1, Table: mustTable(database.TableUsers)},
		{Key: EntitySettings, Rank: 2, Table: mustTable(database.TableSettings), Bulk: true},
		{Key: EntityCategories, Rank: 3, Table: mustTable(database.TableCategories), Bulk: true, Refs: []Ref{
			{Field: "parent", Source: "parentId", Target: EntityCategories, Pick: categoryID},
		}},
		{Key: EntityStaff, Rank: 4, Table: mustTable(database.TableStaff), Refs: []Ref{
			{Field: "manager", Source: "managerId", Target: EntityStaff, Pick: staffName},
			{Field: "category", Source: "categoryId", Target: EntityCategories, Pick: categoryID},
			{Field: "user", Source: "userId", Target: EntityUsers, Pick: []string{"id", "email"}},
		}},
		{Key: EntitySalaryStructures, Rank: 5, Table: mustTable(database.TableSalaryStructures), Refs: []Ref{
			{Field: "staff", Source: "staffId", Target: EntityStaff, Pick: staffName},
		}},
		{Key: EntityLoans, Rank: 6, Table: mustTable(database.TableLoans), Refs: []Ref{
			{Field: "staff", Source: "staffId", Target: EntityStaff, Pick: staffName},
		}},
		{Key: EntityLoanRepayments, Rank: 7, Table: mustTable(database.TableLoanRepayments), Refs: []Ref{
			{Field: "loan", Source: "loanId", Target: EntityLoans, Pick: []string{"id", "amount"}},
		}},
		{Key: EntityIssues, Rank: 8, Table: mustTable(database.TableIssues), Refs: []Ref{
			{Field: "staff", Source: "staffId", Target: EntityStaff, Pick: staffName},
			{Field: "assignee", Source: "assigneeId", Target: EntityUsers, Pick: userName},
		}},
		{Key: EntityIssueComments, Rank: 9, Table: mustTable(database.TableIssueComments), Refs: []Ref{
			{Field: "author", Source: "authorId", Target: EntityUsers, Pick: userName},
		}},
		{Key: EntityAttachments, Rank: 10, Table: mustTable(database.TableAttachments), Refs: []Ref{
			{Field: "uploader", Source: "uploaderId", Target: EntityUsers, Pick: userName},
		}},
		{Key: EntityStaffHistory, Rank: 11, Table: mustTable(database.TableStaffHistory), Refs: []Ref{
			{Field: "staff", Source: "staffId", Target: EntityStaff, Pick: staffName},
			{Field: "changedByUser", Source: "changedBy", Target: EntityUsers, Pick: userName},
		}},
		{Key: EntityPayrollSnapshots, Rank: 12, Table: mustTable(database.TablePayrollSnapshots), Bulk: true, Refs: []Ref{
			{Field: "createdByUser", Source: "createdBy", Target: EntityUsers, Pick: userName},
		}},
		{Key: EntityShareableLinks, Rank: 13, Table: mustTable(database.TableShareableLinks), Bulk: true, Refs: []Ref{
			{Field: "createdByUser", Source: "createdBy", Target: EntityUsers, Pick: userName},
		}},
	})
}

// NewRegistry builds a registry from types, sorted by rank.
func NewRegistry(types []EntityType) *Registry {
	sorted := make([]EntityType, len(types))
	copy(sorted, types)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	byKey := make(map[string]EntityType, len(sorted))
	for _, t := range sorted {
		byKey[t.Key] = t
	}
	return &Registry{types: sorted, byKey: byKey}
}

// Keys returns the entity keys in recreate order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.types))
	for i, t := range r.types {
		keys[i] = t.Key
	}
	return keys
}

// Lookup returns the entity type registered under key.
func (r *Registry) Lookup(key string) (EntityType, bool) {
	t, ok := r.byKey[key]
	return t, ok
}

// Len returns the number of registered entity types.
func (r *Registry) Len() int {
	return len(r.types)
}

// RecreateOrder returns entity types parents first.
func (r *Registry) RecreateOrder() []EntityType {
	out := make([]EntityType, len(r.types))
	copy(out, r.types)
	return out
}

// DeleteOrder returns entity types children first, the exact reverse of
// RecreateOrder.
func (r *Registry) DeleteOrder() []EntityType {
	out := make([]EntityType, len(r.types))
	for i, t := range r.types {
		out[len(r.types)-1-i] = t
	}
	return out
}
