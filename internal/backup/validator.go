// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package backup

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Validator checks the shape of untrusted snapshot documents. It does not
// cross-check metadata.tables or metadata.totalRecords against the data;
// metadata is advisory.
type Validator struct {
	keys []string
}

// NewValidator creates a validator requiring every key in reg.
func NewValidator(reg *Registry) *Validator {
	return &Validator{keys: reg.Keys()}
}

var defaultValidator = NewValidator(DefaultRegistry())

// Validate reports whether candidate has the snapshot shape, using the
// default registry.
func Validate(candidate interface{}) bool {
	return defaultValidator.Validate(candidate)
}

// Validate reports whether candidate has the snapshot shape. It never
// panics; malformed input is simply invalid.
func (v *Validator) Validate(candidate interface{}) bool {
	return len(v.Inspect(candidate)) == 0
}

// Inspect returns every reason candidate is not a valid snapshot, or nil.
// candidate is a decoded JSON document (map[string]interface{}), a
// *Snapshot, or anything else, which is rejected.
func (v *Validator) Inspect(candidate interface{}) (problems []string) {
	defer func() {
		if r := recover(); r != nil {
			problems = []string{fmt.Sprintf("backup could not be inspected: %v", r)}
		}
	}()

	doc, ok := normalize(candidate)
	if !ok {
		return []string{"backup must be a JSON object"}
	}

	meta, ok := doc["metadata"].(map[string]interface{})
	if !ok {
		problems = append(problems, "metadata is missing or not an object")
	} else {
		problems = append(problems, inspectMetadata(meta)...)
	}

	data, ok := doc["data"].(map[string]interface{})
	if !ok {
		problems = append(problems, "data is missing or not an object")
		return problems
	}
	for _, key := range v.keys {
		val, present := data[key]
		if !present {
			problems = append(problems, fmt.Sprintf("data.%s is missing", key))
			continue
		}
		if _, isList := val.([]interface{}); !isList {
			problems = append(problems, fmt.Sprintf("data.%s must be an array", key))
		}
	}
	return problems
}

func inspectMetadata(meta map[string]interface{}) []string {
	var problems []string
	for _, field := range []string{"version", "timestamp", "backupId"} {
		s, ok := meta[field].(string)
		if !ok || s == "" {
			problems = append(problems, fmt.Sprintf("metadata.%s must be a non-empty string", field))
		}
	}
	if !isNumber(meta["totalRecords"]) {
		problems = append(problems, "metadata.totalRecords must be a number")
	}
	return problems
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, json.Number:
		return true
	default:
		return false
	}
}

// normalize converts candidate to the generic document form.
func normalize(candidate interface{}) (map[string]interface{}, bool) {
	switch c := candidate.(type) {
	case nil:
		return nil, false
	case map[string]interface{}:
		return c, true
	case *Snapshot:
		if c == nil {
			return nil, false
		}
		return roundTrip(c)
	case Snapshot:
		return roundTrip(&c)
	default:
		return nil, false
	}
}

func roundTrip(snap *Snapshot) (map[string]interface{}, bool) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, false
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// ParseDocument decodes raw into a snapshot. A decode failure is returned
// as err; a well-formed document with the wrong shape yields problems.
func (v *Validator) ParseDocument(raw []byte) (snap *Snapshot, problems []string, err error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("not valid JSON: %w", err)
	}

	if problems := v.Inspect(doc); len(problems) > 0 {
		return nil, problems, nil
	}

	snap = &Snapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, []string{fmt.Sprintf("backup does not match the snapshot format: %v", err)}, nil
	}
	return snap, nil, nil
}

// ValidateDocument decodes raw and validates it. err is non-nil only when
// raw is not JSON at all.
func (v *Validator) ValidateDocument(raw []byte) (bool, error) {
	_, problems, err := v.ParseDocument(raw)
	if err != nil {
		return false, err
	}
	return len(problems) == 0, nil
}
