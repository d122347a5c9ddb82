// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package query

import (
	"fmt"
	"strings"
)

// MaxParams is the parameter ceiling a single statement is kept under.
// PostgreSQL rejects statements with more than 65535 bind parameters.
const MaxParams = 65535

// InsertBuilder constructs a parameterized multi-row INSERT statement.
//
// Example usage:
//
//	ib := query.NewInsertBuilder("loans", []string{"id", "amount"})
//	ib.AddRow("l1", 5000.0)
//	stmt, args := ib.Build()
type InsertBuilder struct {
	table   string
	columns []string
	rows    int
	args    []interface{}
}

// NewInsertBuilder creates a builder for the given table and column order.
func NewInsertBuilder(table string, columns []string) *InsertBuilder {
	return &InsertBuilder{
		table:   table,
		columns: columns,
		args:    []interface{}{},
	}
}

// AddRow appends one row of values. The number of values must equal the
// number of columns; a mismatch is reported by Build.
func (ib *InsertBuilder) AddRow(values ...interface{}) *InsertBuilder {
	ib.rows++
	ib.args = append(ib.args, values...)
	return ib
}

// Rows returns the number of rows added so far.
func (ib *InsertBuilder) Rows() int {
	return ib.rows
}

// IsEmpty returns true if no rows have been added.
func (ib *InsertBuilder) IsEmpty() bool {
	return ib.rows == 0
}

// Reset clears accumulated rows so the builder can be reused for the next chunk.
func (ib *InsertBuilder) Reset() *InsertBuilder {
	ib.rows = 0
	ib.args = ib.args[:0]
	return ib
}

// Build renders the INSERT statement and its flattened arguments.
// Returns an error if no rows were added or a row had the wrong arity.
func (ib *InsertBuilder) Build() (string, []interface{}, error) {
	if ib.rows == 0 {
		return "", nil, fmt.Errorf("insert into %s: no rows", ib.table)
	}
	width := len(ib.columns)
	if width == 0 {
		return "", nil, fmt.Errorf("insert into %s: no columns", ib.table)
	}
	if len(ib.args) != ib.rows*width {
		return "", nil, fmt.Errorf("insert into %s: have %d values for %d rows of %d columns",
			ib.table, len(ib.args), ib.rows, width)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(Ident(ib.table))
	sb.WriteString(" (")
	sb.WriteString(identList(ib.columns))
	sb.WriteString(") VALUES ")
	for r := 0; r < ib.rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		sb.WriteString(Placeholders(r*width+1, width))
		sb.WriteString(")")
	}

	args := make([]interface{}, len(ib.args))
	copy(args, ib.args)
	return sb.String(), args, nil
}

// ChunkSize returns how many rows of the given width fit in one statement,
// capped at maxRows.
func ChunkSize(width, maxRows int) int {
	if width <= 0 {
		return maxRows
	}
	n := MaxParams / width
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Placeholders returns n comma-separated numbered placeholders starting at start.
//
//	Placeholders(3, 2) // "$3, $4"
func Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// Select renders a full-table read ordered by orderBy.
func Select(table string, columns []string, orderBy string) string {
	stmt := fmt.Sprintf("SELECT %s FROM %s", identList(columns), Ident(table))
	if orderBy != "" {
		stmt += " ORDER BY " + Ident(orderBy)
	}
	return stmt
}

// Count renders a row count for table.
func Count(table string) string {
	return "SELECT COUNT(*) FROM " + Ident(table)
}

// DeleteAll renders an unconditional delete for table.
func DeleteAll(table string) string {
	return "DELETE FROM " + Ident(table)
}

// Ident double-quotes a SQL identifier.
func Ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Ident(n)
	}
	return strings.Join(quoted, ", ")
}
