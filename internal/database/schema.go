// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package database

import (
	"fmt"
	"strings"

	"github.com/tomtom215/hrmsvault/internal/database/query"
)

// Kind is the storage kind of a column. It decides the SQL type, how values
// are scanned on read and how snapshot values are coerced on write.
type Kind int

// Column kinds.
const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// sqlType returns a type name understood by both DuckDB and PostgreSQL.
// JSON documents are stored as TEXT so neither engine needs an extension.
func (k Kind) sqlType() string {
	switch k {
	case KindInt:
		return "BIGINT"
	case KindFloat:
		return "DOUBLE PRECISION"
	case KindBool:
		return "BOOLEAN"
	case KindTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// Column describes one persisted column.
type Column struct {
	Name     string // snake_case column name
	Field    string // camelCase record field name
	Kind     Kind
	Required bool
}

// Table describes one persisted entity table.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Fields returns the record field names in declaration order.
func (t Table) Fields() []string {
	fields := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = c.Field
	}
	return fields
}

// HasField reports whether field is one of the table's canonical fields.
func (t Table) HasField(field string) bool {
	for _, c := range t.Columns {
		if c.Field == field {
			return true
		}
	}
	return false
}

// createSQL renders the CREATE TABLE statement. There are no foreign keys:
// referential order is enforced by the import engine, and DuckDB cannot
// delete and re-insert a referenced key inside one transaction.
func (t Table) createSQL() string {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		def := fmt.Sprintf("\t%s %s", query.Ident(c.Name), c.Kind.sqlType())
		if c.Required {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	defs = append(defs, "\tPRIMARY KEY (\"id\")")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", query.Ident(t.Name), strings.Join(defs, ",\n"))
}

func col(name string, kind Kind) Column {
	return Column{Name: name, Field: camelCase(name), Kind: kind}
}

func req(name string, kind Kind) Column {
	c := col(name, kind)
	c.Required = true
	return c
}

// camelCase converts a snake_case column name to its record field name.
func camelCase(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// Table names.
const (
	TableUsers            = "users"
	TableSettings         = "settings"
	TableCategories       = "categories"
	TableStaff            = "staff"
	TableSalaryStructures = "salary_structures"
	TableLoans            = "loans"
	TableLoanRepayments   = "loan_repayments"
	TableIssues           = "issues"
	TableIssueComments    = "issue_comments"
	TableAttachments      = "attachments"
	TableStaffHistory     = "staff_history"
	TablePayrollSnapshots = "payroll_snapshots"
	TableShareableLinks   = "shareable_links"
)

// Tables is the HRMS schema in parent-before-child order.
var Tables = []Table{
	{Name: TableUsers, Columns: []Column{
		req("id", KindString),
		req("email", KindString),
		req("name", KindString),
		req("role", KindString),
		col("password_hash", KindString),
		req("is_active", KindBool),
		col("last_login_at", KindTime),
		req("created_at", KindTime),
		col("updated_at", KindTime),
	}},
	{Name: TableSettings, Columns: []Column{
		req("id", KindString),
		req("key", KindString),
		col("value", KindString),
		col("description", KindString),
		col("updated_at", KindTime),
	}},
	{Name: TableCategories, Columns: []Column{
		req("id", KindString),
		req("name", KindString),
		col("description", KindString),
		col("parent_id", KindString),
		req("created_at", KindTime),
	}},
	{Name: TableStaff, Columns: []Column{
		req("id", KindString),
		req("full_name", KindString),
		col("email", KindString),
		col("phone", KindString),
		col("position", KindString),
		col("department", KindString),
		col("category_id", KindString),
		col("manager_id", KindString),
		col("user_id", KindString),
		col("hire_date", KindTime),
		req("status", KindString),
		req("created_at", KindTime),
		col("updated_at", KindTime),
	}},
	{Name: TableSalaryStructures, Columns: []Column{
		req("id", KindString),
		req("staff_id", KindString),
		req("basic_salary", KindFloat),
		col("allowances", KindJSON),
		col("deductions", KindJSON),
		req("effective_date", KindTime),
		req("created_at", KindTime),
	}},
	{Name: TableLoans, Columns: []Column{
		req("id", KindString),
		req("staff_id", KindString),
		req("amount", KindFloat),
		col("interest_rate", KindFloat),
		req("balance", KindFloat),
		col("installments", KindInt),
		req("status", KindString),
		req("issued_at", KindTime),
		col("due_date", KindTime),
		req("created_at", KindTime),
	}},
	{Name: TableLoanRepayments, Columns: []Column{
		req("id", KindString),
		req("loan_id", KindString),
		req("amount", KindFloat),
		req("paid_at", KindTime),
		col("note", KindString),
	}},
	{Name: TableIssues, Columns: []Column{
		req("id", KindString),
		col("staff_id", KindString),
		col("assignee_id", KindString),
		req("title", KindString),
		col("description", KindString),
		req("status", KindString),
		col("priority", KindString),
		req("created_at", KindTime),
		col("updated_at", KindTime),
		col("resolved_at", KindTime),
	}},
	{Name: TableIssueComments, Columns: []Column{
		req("id", KindString),
		req("issue_id", KindString),
		col("author_id", KindString),
		req("body", KindString),
		req("created_at", KindTime),
	}},
	{Name: TableAttachments, Columns: []Column{
		req("id", KindString),
		col("issue_id", KindString),
		col("uploader_id", KindString),
		req("file_name", KindString),
		col("mime_type", KindString),
		col("size_bytes", KindInt),
		req("storage_path", KindString),
		req("created_at", KindTime),
	}},
	{Name: TableStaffHistory, Columns: []Column{
		req("id", KindString),
		req("staff_id", KindString),
		col("changed_by", KindString),
		req("field", KindString),
		col("old_value", KindString),
		col("new_value", KindString),
		req("changed_at", KindTime),
	}},
	{Name: TablePayrollSnapshots, Columns: []Column{
		req("id", KindString),
		req("period", KindString),
		col("staff_count", KindInt),
		col("total_gross", KindFloat),
		col("total_net", KindFloat),
		col("data", KindJSON),
		col("created_by", KindString),
		req("created_at", KindTime),
	}},
	{Name: TableShareableLinks, Columns: []Column{
		req("id", KindString),
		req("token", KindString),
		req("resource", KindString),
		col("resource_id", KindString),
		col("expires_at", KindTime),
		req("is_active", KindBool),
		col("created_by", KindString),
		req("created_at", KindTime),
	}},
}

// TableByName looks up a schema table.
func TableByName(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
