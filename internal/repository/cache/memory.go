package cache

import (
	"context"
	"sync"
	"time"

	"github.com/transit-explorer/internal/domain/repository"
	"go.uber.org/zap"
)

type memoryEntry struct {
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.Sub(e.insertedAt) > e.ttl
}

// memoryRepository is the in-memory TTL cache backend. A read past an
// entry's TTL is a miss and evicts the entry; Set is last-write-wins.
type memoryRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	logger  *zap.Logger
	now     func() time.Time
}

// NewMemoryRepository creates the in-memory cache backend with a
// background sweep for entries that are never read again.
func NewMemoryRepository(logger *zap.Logger) repository.CacheRepository {
	r := &memoryRepository{
		entries: make(map[string]memoryEntry),
		logger:  logger,
		now:     time.Now,
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			r.sweep()
		}
	}()

	return r
}

func (r *memoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, nil // Cache miss
	}
	if entry.expired(r.now()) {
		delete(r.entries, key)
		return nil, nil
	}

	return entry.value, nil
}

func (r *memoryRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = memoryEntry{
		value:      value,
		insertedAt: r.now(),
		ttl:        ttl,
	}
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
	return nil
}

func (r *memoryRepository) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for k, e := range r.entries {
		if e.expired(now) {
			delete(r.entries, k)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("Cache sweep", zap.Int("removed", removed))
	}
}
