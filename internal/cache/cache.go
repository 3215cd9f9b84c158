// Package cache defines the TTL key-value cache contract used to shadow
// trend reads in front of the durable store, and a Redis-backed
// implementation of it.
package cache

import "context"

// Cache stores opaque serialized trend bodies with best-effort expiry.
// A miss is reported as (nil, nil), never an error — callers treat cache
// failures as misses, not request failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Del(ctx context.Context, key string) error
	Close() error
}
