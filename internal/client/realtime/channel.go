package realtime

import (
	"encoding/json"
	"sync"
	"time"
)

// Channel is an in-process Source. Publish hands the payload straight to the
// registered handler on the caller's goroutine.
type Channel struct {
	mu      sync.RWMutex
	handler Handler
}

func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) Capability() Capability { return CapabilityPush }

func (c *Channel) Register(h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		return ErrAlreadyRegistered
	}
	c.handler = h
	return nil
}

func (c *Channel) Unregister() {
	c.mu.Lock()
	c.handler = nil
	c.mu.Unlock()
}

// Publish delivers payload and reports whether a handler received it.
func (c *Channel) Publish(payload json.RawMessage) bool {
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		return false
	}
	h(Event{Payload: payload, ReceivedAt: time.Now()})
	return true
}
