// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/situs/internal/cache"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// cachedFetch serves fn's result from the cache when present, otherwise
// fetches and stores it. Empty result sets are cached too: "no competitors
// here" is a valid answer worth remembering. Corrupt cache entries are
// dropped and refetched. Fetch errors are never cached.
func cachedFetch[T any](ctx context.Context, cacher cache.Cacher, key string, ttl time.Duration, fn func(context.Context) ([]T, error)) ([]T, error) {
	if data, ok := cacher.Get(key); ok {
		var records []T
		if err := json.Unmarshal(data, &records); err == nil {
			metrics.CacheHits.WithLabelValues("source").Inc()
			return records, nil
		}
		cacher.Delete(key)
	}
	metrics.CacheMisses.WithLabelValues("source").Inc()

	records, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		cacher.SetWithTTL(key, data, ttl)
	}
	return records, nil
}

type boundsQuery struct {
	Category string             `json:"category"`
	Bounds   models.BoundingBox `json:"bounds"`
}

type radiusQuery struct {
	Category string            `json:"category"`
	Center   models.Coordinate `json:"center"`
	RadiusM  float64           `json:"radius_m"`
}

type signalQuery struct {
	Category   string             `json:"category"`
	Bounds     models.BoundingBox `json:"bounds"`
	WindowDays int                `json:"window_days"`
}

// CachedBusinessSource wraps a BusinessSource with TTL caching keyed on the
// query parameters.
type CachedBusinessSource struct {
	inner BusinessSource
	cache cache.Cacher
	ttl   time.Duration
	name  string
}

// NewCachedBusinessSource creates a caching decorator. The name namespaces
// cache keys so distinct backends never share entries.
func NewCachedBusinessSource(name string, inner BusinessSource, cacher cache.Cacher, ttl time.Duration) *CachedBusinessSource {
	return &CachedBusinessSource{inner: inner, cache: cacher, ttl: ttl, name: name}
}

// FetchByBounds serves from cache when possible.
func (s *CachedBusinessSource) FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error) {
	key := cache.GenerateKey(s.name+".fetch_by_bounds", boundsQuery{Category: category, Bounds: bounds})
	return cachedFetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]models.BusinessRecord, error) {
		return s.inner.FetchByBounds(ctx, category, bounds)
	})
}

// FetchByRadius serves from cache when possible.
func (s *CachedBusinessSource) FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	key := cache.GenerateKey(s.name+".fetch_by_radius", radiusQuery{Category: category, Center: center, RadiusM: radiusM})
	return cachedFetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]models.BusinessRecord, error) {
		return s.inner.FetchByRadius(ctx, category, center, radiusM)
	})
}

// CachedSocialSource wraps a SocialSource with TTL caching keyed on the
// query parameters.
type CachedSocialSource struct {
	inner SocialSource
	cache cache.Cacher
	ttl   time.Duration
	name  string
}

// NewCachedSocialSource creates a caching decorator for a social source.
func NewCachedSocialSource(name string, inner SocialSource, cacher cache.Cacher, ttl time.Duration) *CachedSocialSource {
	return &CachedSocialSource{inner: inner, cache: cacher, ttl: ttl, name: name}
}

// Fetch serves from cache when possible.
func (s *CachedSocialSource) Fetch(ctx context.Context, category string, bounds models.BoundingBox, windowDays int) ([]models.SocialSignal, error) {
	key := cache.GenerateKey(s.name+".fetch_signals", signalQuery{Category: category, Bounds: bounds, WindowDays: windowDays})
	return cachedFetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]models.SocialSignal, error) {
		return s.inner.Fetch(ctx, category, bounds, windowDays)
	})
}

// Compile-time interface checks.
var (
	_ BusinessSource = (*CachedBusinessSource)(nil)
	_ SocialSource   = (*CachedSocialSource)(nil)
)
