package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one result row of Query, in result column order.
type Row struct {
	Columns []string
	Values  []any
}

func newRow(columns []string, values []any) Row {
	return Row{Columns: columns, Values: values}
}

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON encodes the row as a JSON object whose keys keep result
// column order. Whether text is HTML-escaped is up to the caller's encoder:
// json.Marshal escapes, an Encoder with SetEscapeHTML(false) does not.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(&buf, c); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		v := r.Values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if err := encode(&buf, v); err != nil {
			return nil, fmt.Errorf("marshal column %s: %w", c, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encoder adds a trailing newline, remove it
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
