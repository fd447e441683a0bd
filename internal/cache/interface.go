// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package cache provides TTL-based caching for recommendation results,
// environment vectors, and upstream source responses.
package cache

import (
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/situs/internal/logging"
)

// Cacher is the interface implemented by all cache backends. Values are
// opaque byte slices; callers serialize their own types (typically with
// goccy/go-json) so that the memory and Badger backends behave identically.
type Cacher interface {
	// Get retrieves a value by key. Returns (nil, false) when the key is
	// absent or its entry has expired.
	Get(key string) ([]byte, bool)

	// Set stores a value using the backend's default TTL.
	Set(key string, value []byte)

	// SetWithTTL stores a value with an explicit TTL, overriding the default.
	SetWithTTL(key string, value []byte, ttl time.Duration)

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string)

	// Clear removes all entries owned by this cache.
	Clear()

	// GetStats returns a snapshot of cache statistics.
	GetStats() Stats

	// HitRate returns the cache hit rate as a percentage (0-100).
	HitRate() float64
}

// Backend selects a cache implementation.
type Backend string

const (
	// BackendMemory keeps entries in process memory. Fast, lost on restart.
	BackendMemory Backend = "memory"

	// BackendBadger persists entries in BadgerDB with native TTL support,
	// so warm caches survive restarts.
	BackendBadger Backend = "badger"
)

// Config holds cache configuration.
type Config struct {
	// Backend selects the implementation. Defaults to BackendMemory.
	Backend Backend

	// TTL is the default entry lifetime. Defaults to 5 minutes.
	TTL time.Duration
}

// NewCacher creates a cache from configuration. The Badger backend requires
// an open database handle; when db is nil the memory backend is used instead
// so that a misconfigured cache never takes the service down.
func NewCacher(cfg Config, db *badger.DB) Cacher {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	switch cfg.Backend {
	case BackendBadger:
		if db != nil {
			return NewBadgerCache(db, ttl)
		}
		logging.Warn().Msg("Badger cache backend configured without a database handle, falling back to memory")
		return New(ttl)
	case BackendMemory, "":
		return New(ttl)
	default:
		logging.Warn().Str("backend", string(cfg.Backend)).Msg("Unknown cache backend, falling back to memory")
		return New(ttl)
	}
}

// Compile-time interface checks.
var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*BadgerCache)(nil)
)
