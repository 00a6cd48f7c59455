package cachemanager

import (
	"context"
	"time"
)

// Loader produces the value for key on a cache miss.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// ReadThroughCache serves values from a cache and calls its loader on a miss,
// storing what it returns. Errors are never cached. With a nil cache every Get
// goes to the loader.
type ReadThroughCache[K comparable, V any] struct {
	cache CacheManager[K, V]
	load  Loader[K, V]
}

func NewReadThroughCache[K comparable, V any](cache CacheManager[K, V], load Loader[K, V]) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{cache: cache, load: load}
}

// Get returns the value for key. hit reports whether it came from the cache.
func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K, ttl time.Duration) (V, bool, error) {
	return r.get(ctx, key, ttl, false)
}

// GetWithRefresh is Get, restarting the TTL of a cached value.
func (r *ReadThroughCache[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool, error) {
	return r.get(ctx, key, ttl, true)
}

func (r *ReadThroughCache[K, V]) get(ctx context.Context, key K, ttl time.Duration, refresh bool) (V, bool, error) {
	if r.cache == nil {
		v, err := r.load(ctx, key)
		return v, false, err
	}

	var (
		v  V
		ok bool
	)
	if refresh {
		v, ok = r.cache.GetWithRefresh(ctx, key, ttl)
	} else {
		v, ok = r.cache.Get(ctx, key)
	}
	if ok {
		return v, true, nil
	}

	v, err := r.load(ctx, key)
	if err != nil {
		return v, false, err
	}
	r.cache.Set(ctx, key, v, ttl)
	return v, false, nil
}

// Invalidate drops key so the next Get reloads it.
func (r *ReadThroughCache[K, V]) Invalidate(ctx context.Context, key K) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, key)
}
