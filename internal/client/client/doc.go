// Package client contains the client-side building blocks that talk to the
// cashbook backend and bootstrap local persistence.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface). Read
//     calls return the raw payload; the models package normalizes it.
//  2. A concrete REST implementation (see HTTPClient) that injects the bearer
//     token, tags each request with an X-Request-ID, bounds every call with a
//     timeout and maps transport failures and non-2xx responses to errors.
//  3. Local persistence bootstrap (OpenStore, RunMigrations) selecting the
//     SQLite or LevelDB durable tier.
//
// # Error Handling
//
// Non-2xx responses become *APIError, carrying the most readable message the
// payload offers. Classify maps any error to a Class (unauthenticated,
// feature absent, transient, rejected, unknown) so callers choose a fallback
// without inspecting status codes. Sentinels ErrUnavailable, ErrUnauthorized,
// ErrForbidden and ErrNotFound match with errors.Is; 5xx responses carry no
// sentinel and are told apart by Classify.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and the configured timeout.
package client
