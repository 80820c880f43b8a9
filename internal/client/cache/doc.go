// Package cache implements the client's two-tier cache: a bounded in-memory
// map in front of a durable kv.Repository, with per-entry TTLs and a
// metadata-gated expiry sweep. Helpers layers the cashbook key scheme and
// invalidation bundles on top of it.
//
// Every operation is best-effort. Read faults are misses and write faults
// are logged; nothing in this package returns an error to its caller.
package cache
