package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// record is one JSON object with its fields left raw.
type record map[string]json.RawMessage

func asRecord(raw json.RawMessage) (record, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false
	}
	return r, true
}

// field returns the first present, non-null value among keys.
func (r record) field(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		if t := bytes.TrimSpace(v); len(t) == 0 || bytes.Equal(t, []byte("null")) {
			continue
		}
		return v, true
	}
	return nil, false
}

// str reads a string-ish field. Numbers are formatted without exponent so
// numeric ids survive; objects yield their "id".
func (r record) str(keys ...string) string {
	v, ok := r.field(keys...)
	if !ok {
		return ""
	}
	return scalarString(v)
}

func scalarString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	if nested, ok := asRecord(v); ok {
		return nested.str("id", "pk")
	}
	return ""
}

// name reads a display name that may be a plain string or an object with
// username/name fields.
func (r record) name(keys ...string) string {
	v, ok := r.field(keys...)
	if !ok {
		return ""
	}
	if nested, ok := asRecord(v); ok {
		if s := nested.str("username", "name", "email"); s != "" {
			return s
		}
		return nested.str("id")
	}
	return scalarString(v)
}

func (r record) boolean(keys ...string) bool {
	v, ok := r.field(keys...)
	if !ok {
		return false
	}
	return FlexBool(v)
}

func (r record) timestamp(keys ...string) time.Time {
	v, ok := r.field(keys...)
	if !ok {
		return time.Time{}
	}
	return flexTime(v)
}

// FlexBool coerces a wire value to a strict boolean: true, "true", 1 and
// "1" are true; everything else, including null and malformed input, is false.
func FlexBool(v json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s == "true" || s == "1"
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		f, err := n.Float64()
		return err == nil && f == 1
	}
	return false
}

// flexTime accepts RFC 3339 strings (with or without zone), date-only
// strings and unix timestamps in seconds or milliseconds.
func flexTime(v json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unixAny(n)
		}
		return time.Time{}
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return unixAny(i)
		}
	}
	return time.Time{}
}

// unixAny treats values past year 33658 in seconds as milliseconds.
func unixAny(n int64) time.Time {
	if n > 1e12 || n < -1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
