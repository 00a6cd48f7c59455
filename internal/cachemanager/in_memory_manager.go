package cachemanager

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/nodegraph/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// InMemoryCacheManager is a CacheManager backed by go-cache. Keys are strings
// underneath, so K is any string type (graph GUIDs in practice).
type InMemoryCacheManager[K ~string, V any] struct {
	name      string
	cache     *gocache.Cache
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

var _ CacheManager[string, int] = (*InMemoryCacheManager[string, int])(nil)

// NewInMemoryCacheManager creates a cache whose expired entries are purged every
// cleanupInterval. name identifies the cache in logs.
func NewInMemoryCacheManager[K ~string, V any](name string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	c := &InMemoryCacheManager[K, V]{
		name:  name,
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
	c.cache.OnEvicted(func(key string, _ any) {
		c.evictions.Add(1)
		log.Debug(log.CatCache, "cache entry evicted", "cache", c.name, "key", key)
	})
	return c
}

// Get returns the value stored under key.
func (c *InMemoryCacheManager[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V
	raw, found := c.cache.Get(string(key))
	if !found {
		c.misses.Add(1)
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "cached value has the wrong type", "cache", c.name, "key", key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return v, true
}

// GetWithRefresh is Get, restarting the TTL of a found entry at ttl.
func (c *InMemoryCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	v, found := c.Get(ctx, key)
	if found {
		c.cache.Set(string(key), v, ttl)
	}
	return v, found
}

// Set stores value under key for ttl. A zero ttl uses the cache default.
func (c *InMemoryCacheManager[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes the given keys. Missing keys are ignored.
func (c *InMemoryCacheManager[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
	return nil
}

// Flush removes every item without counting evictions.
func (c *InMemoryCacheManager[K, V]) Flush(_ context.Context) error {
	c.cache.Flush()
	log.Debug(log.CatCache, "cache flushed", "cache", c.name)
	return nil
}

// Stats returns counts since creation and the current item count.
func (c *InMemoryCacheManager[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Items:     c.cache.ItemCount(),
	}
}
