package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response. Message is the best human-readable text
// found in the payload; Detail keeps the raw "detail" field when present.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// newAPIError builds the APIError for status and body.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	e.Message, e.Detail = extractMessage(body)
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		e.Err = ErrUnauthorized
	case status == http.StatusForbidden && mentionsCredentials(e.Message+" "+e.Detail):
		e.Err = ErrUnauthorized
	case status == http.StatusForbidden:
		e.Err = ErrForbidden
	case status == http.StatusNotFound:
		e.Err = ErrNotFound
	}
	return e
}

// extractMessage picks, in order: message, detail, error, the first
// non_field_errors entry, then the first field error as "field: text".
func extractMessage(body []byte) (msg, detail string) {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return "", ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		text := string(body)
		if len(text) > 200 {
			text = text[:200]
		}
		if strings.HasPrefix(text, "<") {
			return "", ""
		}
		return text, ""
	}
	detail = firstText(obj["detail"])
	for _, k := range []string{"message", "detail", "error", "non_field_errors"} {
		if s := firstText(obj[k]); s != "" {
			return s, detail
		}
	}
	fields := make([]string, 0, len(obj))
	for k := range obj {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		if s := firstText(obj[k]); s != "" {
			return k + ": " + s, detail
		}
	}
	return "", detail
}

// firstText returns a string value, the first string of a list, or the
// message of a nested object.
func firstText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if s := firstText(item); s != "" {
				return s
			}
		}
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, k := range []string{"message", "detail"} {
			if s := firstText(obj[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

func mentionsCredentials(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "token") || strings.Contains(s, "credentials") || strings.Contains(s, "authenticat")
}

// Class is the fallback bucket an error falls into.
type Class int

const (
	ClassNone Class = iota
	ClassUnauthenticated
	ClassFeatureAbsent
	ClassTransient
	ClassRejected
	ClassUnknown
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassUnauthenticated:
		return "unauthenticated"
	case ClassFeatureAbsent:
		return "feature_absent"
	case ClassTransient:
		return "transient"
	case ClassRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var transientMarkers = []string{"timeout", "timed out", "connection", "database"}

// Classify maps err to its Class.
//
// Transient covers network failures, timeouts, 502/503/504 and any 5xx whose
// message or detail mentions a timeout, connection or database problem.
// Other 5xx responses are unknown. 404 is a missing feature, 401 (or a 403
// about credentials) is unauthenticated, and remaining 4xx are rejections.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch s := apiErr.StatusCode; {
		case errors.Is(apiErr.Err, ErrUnauthorized):
			return ClassUnauthenticated
		case s == http.StatusNotFound:
			return ClassFeatureAbsent
		case s == http.StatusBadGateway, s == http.StatusServiceUnavailable, s == http.StatusGatewayTimeout:
			return ClassTransient
		case s >= 500:
			text := strings.ToLower(apiErr.Message + " " + apiErr.Detail)
			for _, m := range transientMarkers {
				if strings.Contains(text, m) {
					return ClassTransient
				}
			}
			return ClassUnknown
		case s == http.StatusRequestTimeout:
			return ClassTransient
		case s >= 400:
			return ClassRejected
		}
		return ClassUnknown
	}

	switch {
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	case errors.Is(err, ErrUnauthorized):
		return ClassUnauthenticated
	case errors.Is(err, ErrNotFound):
		return ClassFeatureAbsent
	case errors.Is(err, ErrForbidden):
		return ClassRejected
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}
	return ClassUnknown
}

// IsStatus reports whether err is an APIError with one of the codes.
func IsStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.StatusCode == c {
			return true
		}
	}
	return false
}

// Message is the text to show a user for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	switch Classify(err) {
	case ClassTransient:
		return "the server could not be reached, try again later"
	case ClassUnauthenticated:
		return "please log in again"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
