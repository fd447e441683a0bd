// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

/*
Package cache provides thread-safe caching with TTL support for source
fetch results.

Two backends implement the Cacher interface:

  - Memory: in-process map with lazy expiration on Get and a background
    cleanup loop. Fast, lost on restart. The default.
  - Badger: persistent BadgerDB storage using native entry TTLs under a
    "cache:" key prefix, so the handle can be shared with import progress
    tracking. Survives restarts, which matters when the upstream is a
    rate-limited public Overpass instance.

Select a backend through NewCacher; an unknown or misconfigured backend
falls back to memory so the cache never takes the service down.

# Usage Example

	c := cache.New(5 * time.Minute)

	c.Set("overpass:gym:bounds", records)
	if value, ok := c.Get("overpass:gym:bounds"); ok {
	    records := value.([]models.BusinessRecord)
	    _ = records
	}

Cache keys for source queries are built with GenerateKey, which hashes the
query parameters into a stable hex digest.

# Thread Safety

All operations are safe for concurrent use. The memory backend guards its
map with a sync.RWMutex; Badger provides its own transaction isolation.
*/
package cache
