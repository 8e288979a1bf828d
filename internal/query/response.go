// Package query models the result of one FQL query and renders it for
// display. Responses round-trip through JSON without losing fields the
// service sent, including ones this CLI does not understand.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the structured result of one query against the service.
// Data and Schema are interpreted by the table renderer; Cursor,
// FreshnessState and RealtimeState are carried through verbatim; any other
// top-level field ends up in the extra list so re-encoding never drops it.
type Response struct {
	Data           []Row
	Schema         json.RawMessage
	Cursor         *string
	FreshnessState *FreshnessState
	RealtimeState  *RealtimeState

	extra []extraField
}

// FreshnessState is service-side bookkeeping, never interpreted here.
type FreshnessState struct {
	LastConsideredXactID string `json:"last_considered_xact_id"`
	LastProcessedXactID  string `json:"last_processed_xact_id"`
}

// RealtimeState is service-side bookkeeping, never interpreted here.
type RealtimeState struct {
	ActualXactID  string `json:"actual_xact_id"`
	MinimumXactID string `json:"minimum_xact_id"`
	ReadBytes     uint64 `json:"read_bytes"`
	Type          string `json:"type"`
}

// extraField is one unrecognized top-level field, kept in document order.
type extraField struct {
	name  string
	value json.RawMessage
}

// Extra returns the raw value of an unrecognized top-level field.
func (r *Response) Extra(name string) (json.RawMessage, bool) {
	for _, f := range r.extra {
		if f.name == name {
			return f.value, true
		}
	}
	return nil, false
}

// UnmarshalJSON decodes the payload with a token scanner so unrecognized
// fields keep their document order for re-encoding.
func (r *Response) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("response: expected JSON object, got %v", tok)
	}

	*r = Response{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("response: expected object key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("response: field %q: %w", key, err)
		}

		switch key {
		case "data":
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &r.Data); err != nil {
					return fmt.Errorf("response: data: %w", err)
				}
			}
		case "schema":
			r.Schema = raw
		case "cursor":
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &r.Cursor); err != nil {
					return fmt.Errorf("response: cursor: %w", err)
				}
			}
		case "freshness_state":
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &r.FreshnessState); err != nil {
					return fmt.Errorf("response: freshness_state: %w", err)
				}
			}
		case "realtime_state":
			if !isNull(raw) {
				if err := json.Unmarshal(raw, &r.RealtimeState); err != nil {
					return fmt.Errorf("response: realtime_state: %w", err)
				}
			}
		default:
			r.extra = append(r.extra, extraField{name: key, value: raw})
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON re-encodes the response: known fields first, then every
// unrecognized field in the order the service sent them.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(name string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(valJSON)
		return nil
	}

	data := r.Data
	if data == nil {
		data = []Row{}
	}
	if err := writeField("data", data); err != nil {
		return nil, err
	}

	schema := r.Schema
	if len(schema) == 0 {
		schema = json.RawMessage("null")
	}
	if err := writeField("schema", schema); err != nil {
		return nil, err
	}
	if err := writeField("cursor", r.Cursor); err != nil {
		return nil, err
	}
	if err := writeField("freshness_state", r.FreshnessState); err != nil {
		return nil, err
	}
	if err := writeField("realtime_state", r.RealtimeState); err != nil {
		return nil, err
	}

	for _, f := range r.extra {
		if err := writeField(f.name, f.value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Row is one record of a query result. Column order follows the JSON
// document, which Go maps would not preserve.
type Row struct {
	keys []string
	vals map[string]json.RawMessage
}

// NewRow builds a row from ordered column/value pairs. Intended for tests.
func NewRow(pairs ...any) Row {
	if len(pairs)%2 != 0 {
		panic("query.NewRow: odd number of arguments")
	}
	r := Row{vals: make(map[string]json.RawMessage)}
	for i := 0; i < len(pairs); i += 2 {
		name := pairs[i].(string)
		raw, err := json.Marshal(pairs[i+1])
		if err != nil {
			panic(err)
		}
		if _, dup := r.vals[name]; !dup {
			r.keys = append(r.keys, name)
		}
		r.vals[name] = raw
	}
	return r
}

// Columns returns the row's column names in document order.
func (r Row) Columns() []string {
	return r.keys
}

// Get returns the raw JSON value of a column.
func (r Row) Get(name string) (json.RawMessage, bool) {
	raw, ok := r.vals[name]
	return raw, ok
}

// UnmarshalJSON decodes a record while recording its key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected JSON object, got %v", tok)
	}

	r.keys = nil
	r.vals = make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("row: expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("row: field %q: %w", key, err)
		}
		if _, dup := r.vals[key]; !dup {
			r.keys = append(r.keys, key)
		}
		r.vals[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON re-encodes the record in its original key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		if err := json.Compact(&buf, r.vals[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
