package scheduler

import (
	"context"
	"sync"
	"time"
)

// Func is a coalesced operation. It receives the context of the Trigger
// call that scheduled it.
type Func func(ctx context.Context)

type task struct {
	gen     uint64
	timer   *time.Timer
	ctx     context.Context
	fn      Func
	running bool
	dirty   bool // fired while running; run once more when done
}

// Coalescer debounces triggers per key. Triggers for one key inside the
// delay window collapse into a single run of the last-supplied Func. If the
// window closes while a run for that key is still in flight, exactly one
// follow-up run is queued behind it.
type Coalescer struct {
	delay time.Duration

	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool
	wg      sync.WaitGroup
}

func NewCoalescer(delay time.Duration) *Coalescer {
	return &Coalescer{delay: delay, tasks: make(map[string]*task)}
}

// Trigger (re)arms key. A run whose context is already done is skipped.
func (c *Coalescer) Trigger(ctx context.Context, key string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	t, ok := c.tasks[key]
	if !ok {
		t = &task{}
		c.tasks[key] = t
	}
	t.ctx, t.fn = ctx, fn
	if t.timer != nil && t.timer.Stop() {
		c.wg.Done()
	}
	t.gen++
	gen := t.gen
	c.wg.Add(1)
	t.timer = time.AfterFunc(c.delay, func() { c.fire(key, t, gen) })
}

// Cancel drops a pending trigger for key. A run already in flight finishes.
func (c *Coalescer) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[key]
	if !ok {
		return
	}
	c.cancelLocked(key, t)
}

// Stop cancels every pending trigger and ignores later ones. Runs in flight
// are left to finish; use Wait to join them.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for key, t := range c.tasks {
		c.cancelLocked(key, t)
	}
}

// Wait blocks until no trigger is pending and no run is in flight.
func (c *Coalescer) Wait() {
	c.wg.Wait()
}

// Pending reports whether key has an armed trigger or a run in flight.
func (c *Coalescer) Pending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tasks[key]
	return ok
}

func (c *Coalescer) cancelLocked(key string, t *task) {
	if t.timer != nil && t.timer.Stop() {
		c.wg.Done()
	}
	t.timer = nil
	t.gen++
	t.dirty = false
	if !t.running {
		delete(c.tasks, key)
	}
}

func (c *Coalescer) fire(key string, t *task, gen uint64) {
	c.mu.Lock()
	if gen != t.gen {
		// superseded after its timer had already fired
		c.mu.Unlock()
		c.wg.Done()
		return
	}
	t.timer = nil
	if t.running {
		t.dirty = true
		c.mu.Unlock()
		c.wg.Done()
		return
	}
	t.running = true
	ctx, fn := t.ctx, t.fn
	c.mu.Unlock()

	defer c.wg.Done()
	for {
		if ctx.Err() == nil {
			fn(ctx)
		}

		c.mu.Lock()
		if !t.dirty {
			t.running = false
			if t.timer == nil && c.tasks[key] == t {
				delete(c.tasks, key)
			}
			c.mu.Unlock()
			return
		}
		t.dirty = false
		ctx, fn = t.ctx, t.fn
		c.mu.Unlock()
	}
}
