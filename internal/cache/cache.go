// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package cache

import (
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/crypto/blake2b"
)

// Entry represents a cached value with its expiry time.
type Entry struct {
	Data      []byte
	ExpiresAt time.Time
}

// Stats tracks cache statistics.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int
	LastCleanup time.Time
	mu          sync.RWMutex
}

// Cache is an in-memory TTL cache. It is the default backend for
// recommendation results and upstream source responses, where losing
// entries on restart only costs a re-computation.
//
// All methods are safe for concurrent use.
type Cache struct {
	entries map[string]Entry
	mu      sync.RWMutex
	ttl     time.Duration
	stats   Stats
}

// New creates a memory cache with the given default TTL and starts a
// background cleanup loop that removes expired entries every 5 minutes.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
	}
	go c.cleanupLoop()
	return c
}

// Get retrieves a value by key. Expired entries are treated as misses and
// removed lazily on access.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		c.recordEviction()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value using the cache's default TTL.
func (c *Cache) Set(key string, value []byte) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a key from the cache. Removals count as evictions.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		c.recordEviction()
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := len(c.entries)
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += int64(evicted)
	c.stats.mu.Unlock()
}

// GetStats returns a snapshot of cache statistics.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	c.mu.RLock()
	totalKeys := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   totalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (c *Cache) HitRate() float64 {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total) * 100
}

// cleanupLoop periodically removes expired entries.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

// cleanup removes all expired entries and updates stats.
func (c *Cache) cleanup() {
	now := time.Now()

	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			c.recordEviction()
		}
	}
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

func (c *Cache) recordEviction() {
	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.mu.Unlock()
}

// GenerateKey builds a cache key from a method name and its parameters.
// Parameters are serialized to JSON and hashed with BLAKE2b-256 so that
// structurally equal requests map to the same key regardless of order of
// construction. The key format is "method:hex" using the first 16 bytes
// of the digest.
//
// Example:
//
//	key := cache.GenerateKey("recommendations", map[string]interface{}{
//	    "region":   "karachi-south",
//	    "category": "gym",
//	    "limit":    10,
//	})
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fall back to a non-hashed key; correctness over cache efficiency.
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := blake2b.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
