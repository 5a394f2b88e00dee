// Package sheet reads and writes spreadsheets as ordered, schema-less rows.
package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is an ordered mapping from column name to cell value. Values are
// string, float64, bool or nil. Key order is the order of first insertion.
type Row struct {
	keys   []string
	values map[string]interface{}
}

// RowSet is an ordered sequence of rows; identity is positional.
type RowSet []*Row

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]interface{})}
}

// RowOf builds a row from alternating key/value arguments.
func RowOf(pairs ...interface{}) *Row {
	if len(pairs)%2 != 0 {
		panic("sheet.RowOf: odd number of arguments")
	}
	r := NewRow()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

// Set stores value under key. An existing key keeps its position.
func (r *Row) Set(key string, value interface{}) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (interface{}, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the column names in order.
func (r *Row) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.keys)
}

// Clone returns a copy of the row.
func (r *Row) Clone() *Row {
	c := &Row{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]interface{}, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Merge returns a copy of r overlaid with every field of other. Values from
// other win on collision; new columns are appended in other's order.
func (r *Row) Merge(other *Row) *Row {
	merged := r.Clone()
	if other == nil {
		return merged
	}
	for _, k := range other.keys {
		merged.Set(k, other.values[k])
	}
	return merged
}

// Map returns the row as a plain map.
func (r *Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the row as a JSON object in column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Text renders a cell value for display and for use as a lookup key.
// Numbers are printed without exponent, nil as the empty string.
func Text(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// HeaderMode selects how an export header is derived from a RowSet.
type HeaderMode string

const (
	// HeaderFirst uses the keys of the first row only.
	HeaderFirst HeaderMode = "first"
	// HeaderUnion uses the first row's keys followed by any column first
	// seen in a later row.
	HeaderUnion HeaderMode = "union"
)

// ParseHeaderMode converts a configuration value into a HeaderMode.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch HeaderMode(s) {
	case HeaderFirst, "":
		return HeaderFirst, nil
	case HeaderUnion:
		return HeaderUnion, nil
	default:
		return "", fmt.Errorf("unknown header mode: %s", s)
	}
}

// Header returns the column names used to display or export rows.
func (rs RowSet) Header(mode HeaderMode) []string {
	if len(rs) == 0 {
		return nil
	}
	header := rs[0].Keys()
	if mode != HeaderUnion {
		return header
	}
	seen := make(map[string]bool, len(header))
	for _, k := range header {
		seen[k] = true
	}
	for _, row := range rs[1:] {
		for _, k := range row.keys {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	return header
}
