package kv

import "context"

// Repository describes the durable key-value operations used by the client.
type Repository interface {
	// Get returns the value stored under key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key that starts with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// DeletePrefix removes every key that starts with prefix and reports how
	// many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Atomic runs fn inside one transaction.
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repository) error) error
}
