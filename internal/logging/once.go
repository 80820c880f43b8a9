package logging

import (
	"sync"

	"golang.org/x/time/rate"
)

// Once gates log lines so each key fires at most once for the lifetime of
// the value (one session). Keys are arbitrary, e.g. "accounts.network".
type Once struct {
	mu    sync.Mutex
	gates map[string]*rate.Sometimes
}

func NewOnce() *Once {
	return &Once{gates: make(map[string]*rate.Sometimes)}
}

// Do runs fn the first time it is called for key and never again until Reset.
func (o *Once) Do(key string, fn func()) {
	o.mu.Lock()
	g, ok := o.gates[key]
	if !ok {
		g = &rate.Sometimes{First: 1}
		o.gates[key] = g
	}
	o.mu.Unlock()

	g.Do(fn)
}

// Reset re-arms every key, e.g. after logout.
func (o *Once) Reset() {
	o.mu.Lock()
	o.gates = make(map[string]*rate.Sometimes)
	o.mu.Unlock()
}
