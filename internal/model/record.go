// Package model defines the data structures used throughout the application.
//
// The API is deliberately schemaless at the edges: admin clients submit
// arbitrary field maps and the storage layer persists them as-is. Each
// collection still has a declared column set (used by the SQLite backend's
// DDL and by the demo seeder), but only the two public endpoints validate
// field presence.
package model

import (
	"encoding/json"
	"maps"
)

// Record is a single stored item: a mapping from field name to value
// (string, number, or boolean). Every persisted record carries an "id"
// field assigned by the store — callers can never supply one.
type Record map[string]any

// IDField is the reserved identifier field. It is stripped from caller
// input on insert and update and is immutable once assigned.
const IDField = "id"

// ID returns the record's identifier, normalising the numeric type the
// decoder happened to produce. JSON decoding yields float64 (or
// json.Number when UseNumber is on), SQLite yields int64.
func (r Record) ID() int64 {
	switch v := r[IDField].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Clone returns a shallow copy of the record. Values are strings, numbers
// and booleans, so a shallow copy is a full copy in practice.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Merge overlays fields onto the record, leaving fields absent from the
// update untouched (partial-update semantics). The id field is never merged.
func (r Record) Merge(fields Record) {
	for k, v := range fields {
		if k == IDField {
			continue
		}
		r[k] = v
	}
}

// WithoutID returns a copy of fields with any caller-supplied id removed.
func (r Record) WithoutID() Record {
	out := r.Clone()
	delete(out, IDField)
	return out
}
