package mapping

import "encoding/json"

// Record is an instance of a schema-defined entity. Values are keyed by
// property name; related items hold *Record and related collections hold
// []*Record.
type Record struct {
	Entity string
	Values map[string]any
}

// NewRecord returns an empty record of the named entity.
func NewRecord(entity string) *Record {
	return &Record{Entity: entity, Values: make(map[string]any)}
}

// MarshalJSON renders the record's values as a JSON object.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Values)
}
