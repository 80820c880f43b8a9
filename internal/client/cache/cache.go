package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/cryptox"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

// NoExpiry passed as a TTL stores an entry that only capacity pressure or an
// explicit removal can evict.
const NoExpiry time.Duration = -1

const (
	DefaultPrefix          = "cache:"
	DefaultMetaKey         = "cache_meta"
	DefaultTTL             = 5 * time.Minute
	DefaultMaxSize         = 100
	DefaultCleanupInterval = time.Hour
)

// Options configures a Cache. Zero fields take the Default* values.
type Options struct {
	// Prefix namespaces every durable entry. Clear only touches keys under it.
	Prefix string
	// MetaKey holds the metadata record. It must not start with Prefix.
	MetaKey string
	// DefaultTTL applies to Set and to SetWithTTL(..., 0). NoExpiry disables
	// time-based expiry for those writes.
	DefaultTTL time.Duration
	// MaxSize bounds the memory tier's entry count.
	MaxSize int
	// CleanupInterval is the minimum spacing of MaybeClearExpired sweeps.
	CleanupInterval time.Duration
	Now             timex.Clock
	Logger          logging.Logger
	// Cipher, when set, seals durable payloads at rest.
	Cipher *cryptox.Cipher
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.MetaKey == "" {
		o.MetaKey = DefaultMetaKey
	}
	if o.DefaultTTL == 0 {
		o.DefaultTTL = DefaultTTL
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
	o.Now = o.Now.OrNow()
	o.Logger = logging.OrNop(o.Logger)
	return o
}

// Cache is safe for concurrent use. The memory tier lock is never held
// across durable-tier I/O.
type Cache struct {
	store kv.Repository
	opts  Options
	log   logging.Logger

	mu    sync.Mutex
	mem   map[string]entry
	order []string // memory keys in insertion order

	// seq stamps writes: writes[key] is the stamp of the last Set or Remove
	// of key, epoch the stamp of the last Clear.
	seq    uint64
	writes map[string]uint64
	epoch  uint64

	metaMu sync.Mutex // serializes metadata read-modify-write
}

// New builds a Cache over store. A nil store leaves only the memory tier.
func New(store kv.Repository, opts Options) (*Cache, error) {
	opts = opts.withDefaults()
	if strings.HasPrefix(opts.MetaKey, opts.Prefix) {
		return nil, fmt.Errorf("cache: meta key %q must not live under prefix %q", opts.MetaKey, opts.Prefix)
	}
	return &Cache{
		store:  store,
		opts:   opts,
		log:    opts.Logger.With("component", "cache"),
		mem:    make(map[string]entry),
		writes: make(map[string]uint64),
	}, nil
}

// Get decodes the value cached under key into out and reports whether it
// was found and unexpired.
func (c *Cache) Get(ctx context.Context, key string, out any) bool {
	e, ok := c.load(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		c.log.Warn(ctx, "cache entry does not decode", "key", key, "error", err)
		return false
	}
	return true
}

// Lookup is Get for a typed result.
func Lookup[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var v T
	if !c.Get(ctx, key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}

func (c *Cache) load(ctx context.Context, key string) (entry, bool) {
	now := c.opts.Now()

	c.mu.Lock()
	e, ok := c.mem[key]
	if ok && e.expired(now) {
		c.dropLocked(key)
		ok = false
	}
	stamp, epoch := c.writes[key], c.epoch
	c.mu.Unlock()
	if ok {
		return e, true
	}

	if c.store == nil {
		return entry{}, false
	}
	raw, err := c.store.Get(ctx, c.durableKey(key))
	if err != nil {
		c.log.Warn(ctx, "cache durable read failed", "key", key, "error", err)
		return entry{}, false
	}
	if raw == nil {
		return entry{}, false
	}
	e, err = c.decode(raw)
	if err != nil {
		c.log.Warn(ctx, "cache durable entry unreadable", "key", key, "error", err)
		return entry{}, false
	}
	if e.expired(now) {
		c.dropExpired(ctx, key, now)
		return entry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writes[key] != stamp || c.epoch != epoch {
		// key was written while the durable read was in flight; memory has
		// the newer state
		cur, ok := c.mem[key]
		if !ok || cur.expired(now) {
			return entry{}, false
		}
		return cur, true
	}
	c.putLocked(key, e)
	return e, true
}

// Set caches v under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	c.SetWithTTL(ctx, key, v, 0)
}

// SetWithTTL caches v under key. A zero ttl is the default; NoExpiry (or
// any negative value) never expires by time.
func (c *Cache) SetWithTTL(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn(ctx, "cache value does not encode", "key", key, "error", err)
		return
	}
	if ttl == 0 {
		ttl = c.opts.DefaultTTL
	}
	e := entry{Data: data, WrittenAt: c.opts.Now()}
	if ttl > 0 {
		e.TTL = &timex.Duration{Duration: ttl}
	}

	c.mu.Lock()
	c.stampLocked(key)
	c.putLocked(key, e)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	raw, err := c.encode(e)
	if err != nil {
		c.log.Warn(ctx, "cache entry does not seal", "key", key, "error", err)
		return
	}
	err = c.withMeta(ctx, func(ctx context.Context, tx kv.Repository, m *metadata) (bool, error) {
		if err := tx.Set(ctx, c.durableKey(key), raw); err != nil {
			return false, err
		}
		return m.add(key), nil
	})
	if err != nil {
		c.log.Warn(ctx, "cache durable write failed", "key", key, "error", err)
		return
	}
	c.MaybeClearExpired(ctx)
}

// Remove drops key from both tiers. Removing an absent key is a no-op.
func (c *Cache) Remove(ctx context.Context, key string) {
	c.mu.Lock()
	c.stampLocked(key)
	c.dropLocked(key)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	err := c.withMeta(ctx, func(ctx context.Context, tx kv.Repository, m *metadata) (bool, error) {
		if err := tx.Delete(ctx, c.durableKey(key)); err != nil {
			return false, err
		}
		return m.remove(key), nil
	})
	if err != nil {
		c.log.Warn(ctx, "cache durable delete failed", "key", key, "error", err)
	}
}

// Clear empties the memory tier, deletes every durable key under the prefix
// and resets the metadata record. Keys outside the prefix are untouched.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	c.epoch = c.seq
	c.writes = make(map[string]uint64)
	c.mem = make(map[string]entry)
	c.order = nil
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	var n int
	err := c.withMeta(ctx, func(ctx context.Context, tx kv.Repository, m *metadata) (bool, error) {
		var err error
		if n, err = tx.DeletePrefix(ctx, c.opts.Prefix); err != nil {
			return false, err
		}
		*m = metadata{Keys: []string{}, LastCleanup: c.opts.Now()}
		return true, nil
	})
	if err != nil {
		c.log.Warn(ctx, "cache clear failed", "error", err)
		return
	}
	c.log.Debug(ctx, "cache cleared", "durable", n)
}

// ClearExpired sweeps both tiers for expired entries and records the sweep
// time. Durable entries that no longer decode are dropped too. The durable
// sweep and its metadata record commit together.
func (c *Cache) ClearExpired(ctx context.Context) {
	now := c.opts.Now()

	c.mu.Lock()
	for _, k := range append([]string(nil), c.order...) {
		if c.mem[k].expired(now) {
			c.dropLocked(k)
		}
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	var removed, kept int
	err := c.withMeta(ctx, func(ctx context.Context, tx kv.Repository, m *metadata) (bool, error) {
		keys, err := tx.Keys(ctx, c.opts.Prefix)
		if err != nil {
			return false, err
		}
		live := make([]string, 0, len(keys))
		for _, dk := range keys {
			key := strings.TrimPrefix(dk, c.opts.Prefix)
			raw, err := tx.Get(ctx, dk)
			if err != nil {
				c.log.Warn(ctx, "cache sweep read failed", "key", key, "error", err)
				live = append(live, key)
				continue
			}
			if raw == nil {
				continue
			}
			e, err := c.decode(raw)
			if err == nil && !e.expired(now) {
				live = append(live, key)
				continue
			}
			if err := tx.Delete(ctx, dk); err != nil {
				return false, err
			}
			removed++
		}
		kept = len(live)
		*m = metadata{Keys: live, LastCleanup: now}
		return true, nil
	})
	if err != nil {
		c.log.Warn(ctx, "cache sweep failed", "error", err)
		return
	}
	c.log.Debug(ctx, "cache sweep done", "removed", removed, "kept", kept)
}

// MaybeClearExpired runs ClearExpired when no sweep happened within the
// cleanup interval and reports whether it did.
func (c *Cache) MaybeClearExpired(ctx context.Context) bool {
	if c.store == nil {
		return false
	}
	c.metaMu.Lock()
	m, err := c.loadMeta(ctx, c.store)
	c.metaMu.Unlock()
	if err != nil {
		c.log.Warn(ctx, "cache metadata read failed", "error", err)
	}

	if !m.LastCleanup.IsZero() && c.opts.Now().Sub(m.LastCleanup) < c.opts.CleanupInterval {
		return false
	}
	c.ClearExpired(ctx)
	return true
}

// putLocked stores e in the memory tier. Overwrites keep their insertion
// position; a new key beyond MaxSize evicts the oldest one.
func (c *Cache) putLocked(key string, e entry) {
	if _, ok := c.mem[key]; ok {
		c.mem[key] = e
		return
	}
	c.mem[key] = e
	c.order = append(c.order, key)
	if len(c.order) > c.opts.MaxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.mem, oldest)
	}
}

func (c *Cache) stampLocked(key string) {
	c.seq++
	c.writes[key] = c.seq
}

func (c *Cache) dropLocked(key string) {
	if _, ok := c.mem[key]; !ok {
		return
	}
	delete(c.mem, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// dropExpired deletes the durable entry for key if it is still expired at
// now. A concurrent Set that replaced it survives.
func (c *Cache) dropExpired(ctx context.Context, key string, now time.Time) {
	err := c.withMeta(ctx, func(ctx context.Context, tx kv.Repository, m *metadata) (bool, error) {
		raw, err := tx.Get(ctx, c.durableKey(key))
		if err != nil {
			return false, err
		}
		if raw != nil {
			if e, err := c.decode(raw); err == nil && !e.expired(now) {
				return false, nil
			}
			if err := tx.Delete(ctx, c.durableKey(key)); err != nil {
				return false, err
			}
		}
		return m.remove(key), nil
	})
	if err != nil {
		c.log.Warn(ctx, "cache durable delete failed", "key", key, "error", err)
	}
}

func (c *Cache) durableKey(key string) string {
	return c.opts.Prefix + key
}

func (c *Cache) encode(e entry) ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	if c.opts.Cipher == nil {
		return raw, nil
	}
	return c.opts.Cipher.Seal(raw)
}

func (c *Cache) decode(raw []byte) (entry, error) {
	if c.opts.Cipher != nil {
		plain, err := c.opts.Cipher.Open(raw)
		if err != nil {
			return entry{}, err
		}
		raw = plain
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, err
	}
	return e, nil
}

// withMeta runs fn and the metadata write it asks for in one durable
// transaction. fn reports whether it changed the metadata.
func (c *Cache) withMeta(ctx context.Context, fn func(ctx context.Context, tx kv.Repository, m *metadata) (bool, error)) error {
	c.metaMu.Lock()
	defer c.metaMu.Unlock()

	return c.store.Atomic(ctx, func(ctx context.Context, tx kv.Repository) error {
		m, err := c.loadMeta(ctx, tx)
		if err != nil {
			return err
		}
		changed, err := fn(ctx, tx, &m)
		if err != nil || !changed {
			return err
		}
		return c.saveMeta(ctx, tx, m)
	})
}

// loadMeta reads the metadata record from r. An unreadable record counts as
// empty.
func (c *Cache) loadMeta(ctx context.Context, r kv.Repository) (metadata, error) {
	m := metadata{Keys: []string{}}
	raw, err := r.Get(ctx, c.opts.MetaKey)
	if err != nil {
		return m, err
	}
	if raw == nil {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		c.log.Warn(ctx, "cache metadata unreadable", "error", err)
		return metadata{Keys: []string{}}, nil
	}
	return m, nil
}

func (c *Cache) saveMeta(ctx context.Context, r kv.Repository, m metadata) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.Set(ctx, c.opts.MetaKey, raw)
}
