package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often the memory cache purges expired
// entries.
const DefaultCleanupInterval = 10 * time.Minute

// MemoryCache is an in-process cache. Payloads are copied on the way in
// and out so callers cannot alias stored bytes.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache that purges expired entries every
// cleanup interval.
func NewMemoryCache(cleanup time.Duration) *MemoryCache {
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}
	return &MemoryCache{cache: gocache.New(gocache.NoExpiration, cleanup)}
}

// Get returns a copy of the stored payload.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		c.cache.Delete(key)
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.cache.Set(key, append([]byte(nil), data...), ttl)
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Len returns the number of stored entries, including expired ones not
// yet purged.
func (c *MemoryCache) Len() int { return c.cache.ItemCount() }

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
