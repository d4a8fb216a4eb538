// Package cache provides byte caches that back the grammar document store.
//
// Backends:
//   - [FileCache]: one JSON entry file per key under a directory
//   - [MemoryCache]: in-process, expiring map (patrickmn/go-cache)
//   - [RedisCache]: shared Redis instance (go-redis)
//   - [MongoCache]: MongoDB collection with a TTL index
//   - [NullCache]: stores nothing
//
// Every backend treats a ttl of zero or less as "never expires". Wrap a
// backend with [Instrument] to report hits, misses, and writes to the
// registered observability hooks.
//
// Keys are built by a [Keyer]. The default keyer derives a readable,
// content-addressed key from the program name and the document bytes:
//
//	grammar:<slug(prog)>:<sha256(document)>
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/argdump/pkg/observability"
)

// Cache stores opaque byte payloads under string keys.
type Cache interface {
	// Get returns the payload and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key for ttl.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Instrument reports the operations on c to the cache hooks under the
// given backend name.
func Instrument(c Cache, backend string) Cache {
	return &instrumented{Cache: c, backend: backend}
}

type instrumented struct {
	Cache
	backend string
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, c.backend)
		} else {
			observability.Cache().OnCacheMiss(ctx, c.backend)
		}
	}
	return data, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.backend, len(data))
	return nil
}
