package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescer_CollapsesBurst(t *testing.T) {
	c := NewCoalescer(30 * time.Millisecond)
	ctx := context.Background()

	var runs atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 10; i++ {
		i := int32(i)
		c.Trigger(ctx, "accounts", func(context.Context) {
			runs.Add(1)
			last.Store(i)
		})
	}
	c.Wait()

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(10), last.Load(), "last trigger wins")
	assert.False(t, c.Pending("accounts"))
}

func TestCoalescer_KeysAreIndependent(t *testing.T) {
	c := NewCoalescer(10 * time.Millisecond)
	ctx := context.Background()

	var mu sync.Mutex
	seen := map[string]int{}
	for _, k := range []string{"a", "b", "a", "c", "b"} {
		k := k
		c.Trigger(ctx, k, func(context.Context) {
			mu.Lock()
			seen[k]++
			mu.Unlock()
		})
	}
	c.Wait()
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
}

func TestCoalescer_OneInFlightPerKey(t *testing.T) {
	c := NewCoalescer(5 * time.Millisecond)
	ctx := context.Background()

	release := make(chan struct{})
	var inFlight, maxInFlight, runs atomic.Int32
	fn := func(context.Context) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		if runs.Add(1) == 1 {
			<-release
		}
		inFlight.Add(-1)
	}

	c.Trigger(ctx, "k", fn)
	require.Eventually(t, func() bool { return inFlight.Load() == 1 }, time.Second, time.Millisecond)

	// Two windows close while the first run blocks; they queue one follow-up.
	c.Trigger(ctx, "k", fn)
	time.Sleep(20 * time.Millisecond)
	c.Trigger(ctx, "k", fn)
	time.Sleep(20 * time.Millisecond)
	close(release)
	c.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, int32(2), runs.Load())
}

func TestCoalescer_CancelAndStop(t *testing.T) {
	c := NewCoalescer(20 * time.Millisecond)
	ctx := context.Background()

	var runs atomic.Int32
	fn := func(context.Context) { runs.Add(1) }

	c.Trigger(ctx, "a", fn)
	c.Cancel("a")
	c.Cancel("missing")
	c.Wait()
	assert.Equal(t, int32(0), runs.Load())

	c.Trigger(ctx, "b", fn)
	c.Stop()
	c.Trigger(ctx, "c", fn)
	c.Wait()
	assert.Equal(t, int32(0), runs.Load())
}

func TestCoalescer_SkipsDoneContext(t *testing.T) {
	c := NewCoalescer(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	c.Trigger(ctx, "k", func(context.Context) { runs.Add(1) })
	cancel()
	c.Wait()
	assert.Equal(t, int32(0), runs.Load())
}

func TestSequencer(t *testing.T) {
	s := NewSequencer(true)
	first := s.Next("accounts")
	second := s.Next("accounts")
	other := s.Next("notifications")

	assert.False(t, s.IsLatest("accounts", first))
	assert.True(t, s.IsLatest("accounts", second))
	assert.True(t, s.IsLatest("notifications", other))

	s.Invalidate("accounts")
	assert.False(t, s.IsLatest("accounts", second))
}

func TestSequencer_Disabled(t *testing.T) {
	s := NewSequencer(false)
	first := s.Next("k")
	s.Next("k")
	assert.True(t, s.IsLatest("k", first))
}
