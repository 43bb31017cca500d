package repository

import (
	"context"
	"time"
)

// CacheRepository is a read-through TTL cache for idempotent, volatile
// lookups. Get returns (nil, nil) on a miss; stale entries are treated as
// misses and evicted.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
