// Package records defines the generic row representation shared by parsers
// and pipeline stages. A Record is a map from canonical column name to a raw
// value (string or nil as produced by the CSV parser). The typed accessors
// perform soft coercion: a value that cannot be coerced reports ok=false and
// is treated by callers as a malformed field, never as a panic.
package records

import (
	"strconv"
	"strings"
	"time"
)

// Record is one parsed row keyed by canonical column name. Empty source cells
// are stored as nil.
type Record map[string]any

// String returns the string value for key, or "" when absent/nil.
func (r Record) String(key string) string {
	if v, ok := r[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Float parses the value for key as a float64.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int64 parses the value for key as an int64. Values written as floats with a
// zero fraction (e.g. "7.0", common in exported data) are accepted.
func (r Record) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	}
	return 0, false
}

// Bool parses the value for key as a boolean, accepting the usual spellings
// plus TRUE/FALSE as written by common exporters.
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "1", "yes":
			return true, true
		case "false", "f", "0", "no":
			return false, true
		}
	}
	return false, false
}

// timeLayouts are tried in order by Time. The set covers the timestamp shapes
// observed across the input files.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time parses the value for key as a timestamp, trying the known layouts in
// order. The result is in UTC.
func (r Record) Time(key string) (time.Time, bool) {
	s := r.String(key)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
