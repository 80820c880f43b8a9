package cache

import (
	"encoding/json"
	"time"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

// entry is the stored form of one cached value. A nil TTL never expires.
type entry struct {
	Data      json.RawMessage `json:"data"`
	WrittenAt time.Time       `json:"writtenAt"`
	TTL       *timex.Duration `json:"ttl,omitempty"`
}

// expired is true once strictly more than TTL has elapsed since WrittenAt.
func (e entry) expired(now time.Time) bool {
	return e.TTL != nil && now.Sub(e.WrittenAt) > e.TTL.Duration
}

// metadata is the bookkeeping record kept at Options.MetaKey.
type metadata struct {
	Keys        []string  `json:"keys"`
	LastCleanup time.Time `json:"lastCleanup"`
}

func (m *metadata) add(key string) bool {
	for _, k := range m.Keys {
		if k == key {
			return false
		}
	}
	m.Keys = append(m.Keys, key)
	return true
}

func (m *metadata) remove(key string) bool {
	for i, k := range m.Keys {
		if k == key {
			m.Keys = append(m.Keys[:i], m.Keys[i+1:]...)
			return true
		}
	}
	return false
}
