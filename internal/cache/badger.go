// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package cache

import (
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/situs/internal/logging"
)

// cacheKeyPrefix namespaces cache entries inside the shared Badger database,
// which also holds import progress checkpoints under their own prefix.
const cacheKeyPrefix = "cache:"

// BadgerCache is a persistent TTL cache backed by BadgerDB. Entries use
// Badger's native TTL support, so expiry is enforced by the storage engine
// and survives restarts without a cleanup goroutine.
type BadgerCache struct {
	db    *badger.DB
	ttl   time.Duration
	stats Stats
}

// NewBadgerCache creates a persistent cache on an open Badger database.
// The caller owns the database lifecycle.
func NewBadgerCache(db *badger.DB, ttl time.Duration) *BadgerCache {
	return &BadgerCache{
		db:  db,
		ttl: ttl,
	}
}

func (b *BadgerCache) storageKey(key string) []byte {
	return []byte(cacheKeyPrefix + key)
}

// Get retrieves a value by key. Keys that are absent, expired, or unreadable
// are all reported as misses; read errors other than not-found are logged.
func (b *BadgerCache) Get(key string) ([]byte, bool) {
	var data []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.storageKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("Badger cache read failed")
		}
		b.recordMiss()
		return nil, false
	}

	b.recordHit()
	return data, true
}

// Set stores a value using the cache's default TTL.
func (b *BadgerCache) Set(key string, value []byte) {
	b.SetWithTTL(key, value, b.ttl)
}

// SetWithTTL stores a value with an explicit TTL. Write failures are logged
// rather than surfaced; a cache that cannot persist degrades to a miss on
// the next read.
func (b *BadgerCache) SetWithTTL(key string, value []byte, ttl time.Duration) {
	err := b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(b.storageKey(key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Badger cache write failed")
	}
}

// Delete removes a key from the cache. Removals count as evictions.
func (b *BadgerCache) Delete(key string) {
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(b.storageKey(key)); err != nil {
			return err
		}
		return txn.Delete(b.storageKey(key))
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("Badger cache delete failed")
		}
		return
	}
	b.recordEviction()
}

// Clear removes every entry under the cache prefix. Other keyspaces in the
// shared database (import checkpoints) are untouched.
func (b *BadgerCache) Clear() {
	evicted := b.countKeys()
	if err := b.db.DropPrefix([]byte(cacheKeyPrefix)); err != nil {
		logging.Error().Err(err).Msg("Badger cache clear failed")
		return
	}

	b.stats.mu.Lock()
	b.stats.Evictions += int64(evicted)
	b.stats.mu.Unlock()
}

// GetStats returns a snapshot of cache statistics. TotalKeys counts live
// entries under the cache prefix; Badger removes expired keys during
// compaction, so the count may briefly include entries past their TTL.
func (b *BadgerCache) GetStats() Stats {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	return Stats{
		Hits:      b.stats.Hits,
		Misses:    b.stats.Misses,
		Evictions: b.stats.Evictions,
		TotalKeys: b.countKeys(),
	}
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (b *BadgerCache) HitRate() float64 {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	total := b.stats.Hits + b.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(b.stats.Hits) / float64(total) * 100
}

// countKeys counts live entries under the cache prefix without fetching
// values.
func (b *BadgerCache) countKeys() int {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(cacheKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Badger cache key count failed")
	}
	return count
}

func (b *BadgerCache) recordHit() {
	b.stats.mu.Lock()
	b.stats.Hits++
	b.stats.mu.Unlock()
}

func (b *BadgerCache) recordMiss() {
	b.stats.mu.Lock()
	b.stats.Misses++
	b.stats.mu.Unlock()
}

func (b *BadgerCache) recordEviction() {
	b.stats.mu.Lock()
	b.stats.Evictions++
	b.stats.mu.Unlock()
}
