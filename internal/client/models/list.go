package models

import (
	"bytes"
	"encoding/json"
)

// ListShape names the wrapper a list payload arrived in.
type ListShape int

const (
	// ShapeUnknown is anything not listed below; it decodes to an empty list.
	ShapeUnknown ListShape = iota
	// ShapeArray is a bare JSON array.
	ShapeArray
	// ShapeData is {"data": [...]}.
	ShapeData
	// ShapeEnvelope is {"success": ..., "data": [...]}.
	ShapeEnvelope
	// ShapeNamed is {"<entity>": [...]}, e.g. {"accounts": [...]}.
	ShapeNamed
	// ShapeResults is a paginated {"results": [...]}.
	ShapeResults
)

func (s ListShape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeData:
		return "data"
	case ShapeEnvelope:
		return "envelope"
	case ShapeNamed:
		return "named"
	case ShapeResults:
		return "results"
	default:
		return "unknown"
	}
}

// splitList unwraps a list payload. name is the entity key accepted in
// ShapeNamed. A "data" object is unwrapped one more level so
// {"success": true, "data": {"accounts": [...]}} is also accepted.
func splitList(raw json.RawMessage, name string) ([]json.RawMessage, ListShape) {
	if items, ok := asArray(raw); ok {
		return items, ShapeArray
	}
	r, ok := asRecord(raw)
	if !ok {
		return nil, ShapeUnknown
	}
	if v, ok := r.field("data"); ok {
		shape := ShapeData
		if _, env := r["success"]; env {
			shape = ShapeEnvelope
		}
		if items, ok := asArray(v); ok {
			return items, shape
		}
		if inner, ok := asRecord(v); ok {
			for _, k := range []string{name, "results"} {
				if iv, ok := inner.field(k); ok {
					if items, ok := asArray(iv); ok {
						return items, shape
					}
				}
			}
		}
		return nil, ShapeUnknown
	}
	if v, ok := r.field(name); ok {
		if items, ok := asArray(v); ok {
			return items, ShapeNamed
		}
	}
	if v, ok := r.field("results"); ok {
		if items, ok := asArray(v); ok {
			return items, ShapeResults
		}
	}
	return nil, ShapeUnknown
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// unwrapObject returns the object itself or, for {"data": {...}} and
// {"success": ..., "data": {...}}, the inner object.
func unwrapObject(raw json.RawMessage) (record, bool) {
	r, ok := asRecord(raw)
	if !ok {
		return nil, false
	}
	if v, ok := r.field("data"); ok {
		if inner, ok := asRecord(v); ok {
			return inner, true
		}
	}
	return r, true
}
