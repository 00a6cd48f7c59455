// Package cachemanager holds the typed caches the catalog keeps decoded
// documents in: a go-cache backed store with per-entry TTLs and a read-through
// wrapper that fills it from a loader.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value cache with per-entry TTLs.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}

// Stats reports cache effectiveness. Evictions counts entries that expired or
// were deleted.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Items     int
}

// HitRatio is Hits over all lookups, 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
