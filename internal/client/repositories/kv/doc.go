// Package kv is the durable key-value tier that sits under the client cache
// and holds the selected-account id.
//
// # Overview
//
// Repository is a byte-oriented store keyed by string. Two backends exist:
//
//   - SQLiteRepository: table kv_store in the on-device SQLite database
//     (schema comes from internal/client/migrations).
//   - LevelDBRepository: a LevelDB directory, or pure memory storage for
//     tests and throwaway sessions (NewMemLevelDB).
//
// # Contract
//
//   - Get returns (nil, nil) for a missing key.
//   - Delete and DeletePrefix are idempotent.
//   - Keys and DeletePrefix only ever touch keys that start with prefix, so
//     namespaces sharing one store do not interfere.
//   - Atomic runs fn against a transactional Repository; a non-nil error from
//     fn discards every write made through it.
//
// # Concurrency
//
// Both backends are safe for concurrent use.
package kv
