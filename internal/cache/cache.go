// Portcullis - Access Control Gateway for Self-Hosted Web Applications
// Copyright 2026 Portcullis Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/portcullisproject/portcullis

// Package cache provides a time-bounded, concurrency-safe read cache with
// singleflight miss collapsing.
//
// The gateway consults the backing collection service on nearly every
// request; this cache bounds that load. Concurrent callers that miss the
// cache for the same key collapse into a single outbound fetch, and a fetch
// failure falls back to the last good value instead of surfacing an error.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/portcullisproject/portcullis/internal/logging"
	"github.com/portcullisproject/portcullis/internal/metrics"
)

// DefaultTTL is the cache lifetime used when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// FetchFunc loads the value for a key from the backing source.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Cache stores values with an expiry and de-duplicates concurrent misses
// into one fetch. The zero value is not usable; use New.
type Cache[V any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group
}

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// New creates a cache. name labels the cache in logs and metrics.
// A non-positive ttl falls back to DefaultTTL.
func New[V any](name string, ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key, fetching it if absent or expired.
//
// Behavior, in order:
//   - A live entry is returned immediately with no I/O.
//   - If a fetch for key is already in flight, the caller waits for and
//     shares that fetch's result; a second concurrent fetch is never issued.
//   - Otherwise fetch is called. On success the result is stored with a
//     fresh timestamp. On failure a previous (possibly expired) entry is
//     returned instead of the error, and the failure is not cached; only
//     when no previous entry exists does the error propagate, and then all
//     collapsed waiters receive it.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch FetchFunc[V]) (V, error) {
	if v, ok := c.lookup(key, true); ok {
		metrics.RecordCacheLookup(c.name, "hit")
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Waiters queued behind a completed refresh re-check freshness so a
		// thundering herd of expirations still issues exactly one fetch.
		if v, ok := c.lookup(key, true); ok {
			metrics.RecordCacheLookup(c.name, "hit")
			return v, nil
		}

		metrics.RecordCacheLookup(c.name, "miss")
		val, fetchErr := fetch(ctx)
		if fetchErr != nil {
			if stale, ok := c.lookup(key, false); ok {
				metrics.RecordCacheLookup(c.name, "stale")
				logging.Warn().
					Err(fetchErr).
					Str("cache", c.name).
					Str("key", key).
					Msg("fetch failed, serving stale value")
				return stale, nil
			}
			metrics.RecordCacheLookup(c.name, "error")
			return nil, fetchErr
		}

		c.put(key, val)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops the entry for key so the next Get refetches regardless of
// TTL. Used when an operator edits a record and requests a force refresh.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// lookup returns the entry for key. With freshOnly set, expired entries are
// treated as absent.
func (c *Cache[V]) lookup(key string, freshOnly bool) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if freshOnly && c.now().Sub(e.fetchedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, fetchedAt: c.now()}
}
