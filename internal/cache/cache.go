// AdmitLens - Admissions Engagement Telemetry and Lead Analytics
// Copyright 2026 AdmitLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/admitlens/admitlens

// Package cache provides a thread-safe in-memory TTL cache used to
// absorb repeated dashboard snapshot reads between ingests.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats tracks cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// TTL is a generic cache with per-entry expiration. Expired entries
// are removed lazily on access and swept when the entry count crosses
// maxEntries; there is no background goroutine to manage.
type TTL[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	stats      Stats
	nowFunc    func() time.Time
}

// NewTTL creates a cache with the given default TTL. maxEntries <= 0
// means unbounded.
func NewTTL[V any](ttl time.Duration, maxEntries int) *TTL[V] {
	return &TTL[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		nowFunc:    time.Now,
	}
}

// Get retrieves a value. Expired entries count as misses and are
// removed.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		c.mu.Lock()
		c.stats.Misses++
		c.mu.Unlock()
		return zero, false
	}
	if c.nowFunc().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; Set may have refreshed it
		if cur, still := c.entries[key]; still && c.nowFunc().After(cur.expiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
		c.stats.Misses++
		c.mu.Unlock()
		return zero, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *TTL[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	now := c.nowFunc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.sweepLocked(now)
		// Still full after sweeping expired entries: drop the new
		// value rather than evicting a live one at random
		if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
			return
		}
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
}

// Delete removes one key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge removes all entries.
func (c *TTL[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Len returns the current entry count, expired entries included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a copy of the counters.
func (c *TTL[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *TTL[V]) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			c.stats.Evictions++
		}
	}
}
