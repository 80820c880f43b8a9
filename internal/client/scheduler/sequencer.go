package scheduler

import "sync"

// Sequencer hands out increasing request ids per key. A response is applied
// only when IsLatest says no newer request for its key has been issued.
//
// A disabled Sequencer still counts but IsLatest always reports true, which
// gives last-response-wins semantics.
type Sequencer struct {
	mu      sync.Mutex
	latest  map[string]uint64
	enabled bool
}

func NewSequencer(enabled bool) *Sequencer {
	return &Sequencer{latest: make(map[string]uint64), enabled: enabled}
}

// Next issues a new request id for key.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return s.latest[key]
}

// IsLatest reports whether id is still the newest request for key.
func (s *Sequencer) IsLatest(key string, id uint64) bool {
	if !s.enabled {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key] == id
}

// Invalidate makes every outstanding id for key stale.
func (s *Sequencer) Invalidate(key string) {
	s.mu.Lock()
	s.latest[key]++
	s.mu.Unlock()
}
