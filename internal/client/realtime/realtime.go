// Package realtime models the optional push channel for notifications.
//
// A Source declares its Capability up front. Polling is always the primary
// feed; a source with CapabilityNone is a valid, fully supported setup.
package realtime

import (
	"encoding/json"
	"errors"
	"time"
)

type Capability int

const (
	// CapabilityNone means no transport exists; Register is a no-op.
	CapabilityNone Capability = iota
	// CapabilityPush delivers events as they happen.
	CapabilityPush
)

func (c Capability) String() string {
	if c == CapabilityPush {
		return "push"
	}
	return "none"
}

// Event is one pushed notification payload, not yet normalized.
type Event struct {
	Payload    json.RawMessage
	ReceivedAt time.Time
}

type Handler func(Event)

var ErrAlreadyRegistered = errors.New("realtime: handler already registered")

// Source delivers events to a single registered handler.
type Source interface {
	Capability() Capability
	Register(h Handler) error
	Unregister()
}

// Unavailable is the Source used when no transport is configured.
type Unavailable struct{}

func (Unavailable) Capability() Capability { return CapabilityNone }
func (Unavailable) Register(Handler) error { return nil }
func (Unavailable) Unregister()            {}
