// Package scheduler holds the two concurrency primitives the sync engines
// share: Coalescer, a keyed debounce that keeps at most one run in flight
// per key, and Sequencer, a per-key request counter used to discard stale
// responses.
package scheduler
