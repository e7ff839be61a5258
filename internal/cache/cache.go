// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// DefaultCleanupInterval is how often expired entries are swept.
const DefaultCleanupInterval = 5 * time.Minute

// Entry is a cached value with its expiry.
type Entry[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL support.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	ttl     time.Duration
	stats   Stats
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Stats tracks cache performance.
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// New creates a cache whose entries live for ttl by default and starts a
// background sweep. Call Close to stop the sweep.
func New[V any](ttl time.Duration) *Cache[V] {
	return NewWithClock[V](ttl, DefaultCleanupInterval, time.Now)
}

// NewWithClock creates a cache with an explicit sweep interval and clock.
// A non-positive interval disables the background sweep.
func NewWithClock[V any](ttl, cleanupInterval time.Duration, now func() time.Time) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]Entry[V]),
		ttl:     ttl,
		now:     now,
		stop:    make(chan struct{}),
		stats: Stats{
			LastCleanup: now(),
		},
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

// Get returns the value for key if present and unexpired. Expired entries
// are removed and counted as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		c.recordMiss()
		return zero, false
	}

	if !c.now().Before(entry.ExpiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.ExpiresAt.Equal(entry.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.recordMiss()
		c.recordEviction()
		return zero, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL, replacing any
// existing entry.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{
		Data:      value,
		ExpiresAt: c.now().Add(ttl),
	}

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.mu.Unlock()
}

// Delete removes key. Missing keys are ignored.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.recordEviction()
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	evictions := int64(len(c.entries))
	c.entries = make(map[string]Entry[V])
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweep. It is safe to call more than once.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// GetStats returns a copy of the current statistics.
func (c *Cache[V]) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the hit rate as a percentage.
func (c *Cache[V]) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stop:
			return
		}
	}
}

// Cleanup removes all expired entries now.
func (c *Cache[V]) Cleanup() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	evictions := int64(0)
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			evictions++
		}
	}

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
}

func (c *Cache[V]) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

func (c *Cache[V]) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

func (c *Cache[V]) recordEviction() {
	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.mu.Unlock()
}

// GenerateKey creates a cache key from a method name and parameters.
func GenerateKey(method string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
