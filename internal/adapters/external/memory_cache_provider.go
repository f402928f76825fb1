package external

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

// MemoryCacheProvider keeps geocode lookups in process memory
type MemoryCacheProvider struct {
	data  map[string]memoryCacheItem
	mutex sync.RWMutex
	now   func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryCacheItem struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryCacheProvider() *MemoryCacheProvider {
	return &MemoryCacheProvider{
		data: make(map[string]memoryCacheItem),
		now:  time.Now,
	}
}

func (c *MemoryCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.NewValidationError("cache key cannot be empty")
	}

	c.mutex.RLock()
	item, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists || c.now().After(item.expiresAt) {
		c.RecordMiss()
		return nil, errors.NewNotFoundError("cache miss")
	}

	c.RecordHit()
	return item.data, nil
}

func (c *MemoryCacheProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.NewValidationError("cache key cannot be empty")
	}
	if value == nil {
		return errors.NewValidationError("cache value cannot be nil")
	}
	if ttl <= 0 {
		return errors.NewValidationError("cache TTL must be positive")
	}

	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.purgeExpiredLocked(now)
	c.data[key] = memoryCacheItem{
		data:      value,
		expiresAt: now.Add(ttl),
	}

	return nil
}

func (c *MemoryCacheProvider) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.NewValidationError("cache key cannot be empty")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

func (c *MemoryCacheProvider) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]memoryCacheItem)
	return nil
}

// Len returns the number of stored items, expired ones included until the next write
func (c *MemoryCacheProvider) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// purgeExpiredLocked drops expired lookups; called with the write lock held
func (c *MemoryCacheProvider) purgeExpiredLocked(now time.Time) {
	for key, item := range c.data {
		if now.After(item.expiresAt) {
			delete(c.data, key)
		}
	}
}

func (c *MemoryCacheProvider) GetStats() ports.CacheStats {
	return buildCacheStats(c.hits.Load(), c.misses.Load())
}

func (c *MemoryCacheProvider) RecordHit() {
	c.hits.Add(1)
}

func (c *MemoryCacheProvider) RecordMiss() {
	c.misses.Add(1)
}

func (c *MemoryCacheProvider) RecordOperation(operation string, duration time.Duration) {}

func buildCacheStats(hits, misses int64) ports.CacheStats {
	total := hits + misses
	hitRatio := float64(0)
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return ports.CacheStats{
		Hits:        hits,
		Misses:      misses,
		TotalOps:    total,
		HitRatio:    hitRatio,
		LastUpdated: time.Now(),
	}
}
