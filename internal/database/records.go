// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hrmsvault/internal/database/query"
)

// Record is one entity row keyed by camelCase field name.
type Record = map[string]interface{}

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// bulkRowLimit caps rows per multi-row INSERT.
const bulkRowLimit = 500

// ListAll reads every row of t ordered by id.
func ListAll(ctx context.Context, q Querier, t Table) ([]Record, error) {
	rows, err := q.QueryContext(ctx, query.Select(t.Name, t.ColumnNames(), "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.Name, err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		dest := make([]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			dest[i] = scanTarget(c.Kind)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.Name, err)
		}

		rec := make(Record, len(t.Columns))
		for i, c := range t.Columns {
			v, err := scannedValue(c, dest[i])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
			}
			rec[c.Field] = v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", t.Name, err)
	}
	return records, nil
}

// Count returns the number of rows in t.
func Count(ctx context.Context, q Querier, t Table) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, query.Count(t.Name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.Name, err)
	}
	return n, nil
}

// DeleteAll removes every row of t.
func DeleteAll(ctx context.Context, q Querier, t Table) error {
	if _, err := q.ExecContext(ctx, query.DeleteAll(t.Name)); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.Name, err)
	}
	return nil
}

// InsertOne writes a single record. Fields outside the table's columns are
// ignored; missing fields are written as NULL.
func InsertOne(ctx context.Context, q Querier, t Table, rec Record) error {
	return InsertMany(ctx, q, t, []Record{rec})
}

// InsertMany writes records with multi-row INSERT statements, chunked so a
// single statement stays within driver parameter limits.
func InsertMany(ctx context.Context, q Querier, t Table, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	chunk := query.ChunkSize(len(t.Columns), bulkRowLimit)
	ib := query.NewInsertBuilder(t.Name, t.ColumnNames())

	for start := 0; start < len(recs); start += chunk {
		end := start + chunk
		if end > len(recs) {
			end = len(recs)
		}

		ib.Reset()
		for i := start; i < end; i++ {
			args, err := rowArgs(t, recs[i])
			if err != nil {
				return fmt.Errorf("%s record %d: %w", t.Name, i, err)
			}
			ib.AddRow(args...)
		}

		stmt, args, err := ib.Build()
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.Name, err)
		}
	}
	return nil
}

func rowArgs(t Table, rec Record) ([]interface{}, error) {
	args := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		v, err := Coerce(c.Kind, rec[c.Field])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", c.Field, err)
		}
		args[i] = v
	}
	return args, nil
}

func scanTarget(k Kind) interface{} {
	switch k {
	case KindInt:
		return new(sql.NullInt64)
	case KindFloat:
		return new(sql.NullFloat64)
	case KindBool:
		return new(sql.NullBool)
	case KindTime:
		return new(sql.NullTime)
	default:
		return new(sql.NullString)
	}
}

func scannedValue(c Column, dest interface{}) (interface{}, error) {
	switch v := dest.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64, nil
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64, nil
		}
	case *sql.NullBool:
		if v.Valid {
			return v.Bool, nil
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time.UTC(), nil
		}
	case *sql.NullString:
		if !v.Valid {
			return nil, nil
		}
		if c.Kind != KindJSON {
			return v.String, nil
		}
		var doc interface{}
		if err := json.Unmarshal([]byte(v.String), &doc); err != nil {
			return nil, fmt.Errorf("invalid stored json: %w", err)
		}
		return doc, nil
	}
	return nil, nil
}

// Coerce converts a record value, either a native Go value or one decoded
// from JSON, into the parameter type written for a column of kind k.
// nil stays nil.
func Coerce(k Kind, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch k {
	case KindString:
		switch s := v.(type) {
		case string:
			return s, nil
		case json.Number:
			return s.String(), nil
		case float64, int, int64, bool:
			return fmt.Sprint(s), nil
		}
	case KindInt:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
				return nil, fmt.Errorf("%v is not an integer", n)
			}
			return int64(n), nil
		case json.Number:
			return n.Int64()
		case string:
			return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		case string:
			return strconv.ParseFloat(strings.TrimSpace(n), 64)
		}
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case KindTime:
		switch ts := v.(type) {
		case time.Time:
			return ts.UTC(), nil
		case string:
			return parseTime(ts)
		}
	case KindJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cannot encode json value: %w", err)
		}
		return string(b), nil
	}

	return nil, fmt.Errorf("cannot use %T as %s", v, k)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", s)
}
