// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/situs/internal/cache"
	"github.com/tomtom215/situs/internal/models"
)

// countingBusinessSource counts fetches and delegates to fixed records.
type countingBusinessSource struct {
	mu      sync.Mutex
	calls   int
	records []models.BusinessRecord
	err     error
}

func (s *countingBusinessSource) bump() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingBusinessSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingBusinessSource) FetchByBounds(_ context.Context, _ string, _ models.BoundingBox) ([]models.BusinessRecord, error) {
	s.bump()
	return s.records, s.err
}

func (s *countingBusinessSource) FetchByRadius(_ context.Context, _ string, _ models.Coordinate, _ float64) ([]models.BusinessRecord, error) {
	s.bump()
	return s.records, s.err
}

func TestCachedSourceServesSecondFetchFromCache(t *testing.T) {
	inner := &countingBusinessSource{
		records: []models.BusinessRecord{{ID: "b1", Name: "Iron Works Gym", Category: "gym"}},
	}
	src := NewCachedBusinessSource("test", inner, cache.New(time.Minute), time.Minute)

	ctx := context.Background()
	first, err := src.FetchByBounds(ctx, "gym", testBounds())
	if err != nil {
		t.Fatalf("First fetch error = %v", err)
	}
	second, err := src.FetchByBounds(ctx, "gym", testBounds())
	if err != nil {
		t.Fatalf("Second fetch error = %v", err)
	}

	if got := inner.callCount(); got != 1 {
		t.Errorf("Expected 1 inner call, got %d", got)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected 1 record from both fetches, got %d and %d", len(first), len(second))
	}
	if second[0].ID != "b1" || second[0].Name != "Iron Works Gym" {
		t.Errorf("Cached record corrupted: %+v", second[0])
	}
}

func TestCachedSourceKeysOnQueryParameters(t *testing.T) {
	inner := &countingBusinessSource{}
	src := NewCachedBusinessSource("test", inner, cache.New(time.Minute), time.Minute)

	ctx := context.Background()
	if _, err := src.FetchByBounds(ctx, "gym", testBounds()); err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if _, err := src.FetchByBounds(ctx, "cafe", testBounds()); err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	otherBounds := models.BoundingBox{North: 26.0, South: 25.0, East: 69.0, West: 68.0}
	if _, err := src.FetchByBounds(ctx, "gym", otherBounds); err != nil {
		t.Fatalf("fetch error = %v", err)
	}

	// Three distinct queries, three inner calls.
	if got := inner.callCount(); got != 3 {
		t.Errorf("Expected 3 inner calls, got %d", got)
	}
}

func TestCachedSourceCachesEmptyResults(t *testing.T) {
	inner := &countingBusinessSource{} // returns nil slice
	src := NewCachedBusinessSource("test", inner, cache.New(time.Minute), time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		records, err := src.FetchByBounds(ctx, "gym", testBounds())
		if err != nil {
			t.Fatalf("fetch %d error = %v", i, err)
		}
		if len(records) != 0 {
			t.Errorf("Expected empty result, got %d records", len(records))
		}
	}

	// "No competitors here" is cached like any other answer.
	if got := inner.callCount(); got != 1 {
		t.Errorf("Expected 1 inner call, got %d", got)
	}
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	inner := &countingBusinessSource{err: errors.New("upstream down")}
	src := NewCachedBusinessSource("test", inner, cache.New(time.Minute), time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := src.FetchByBounds(ctx, "gym", testBounds()); err == nil {
			t.Fatalf("Expected error on fetch %d", i)
		}
	}

	if got := inner.callCount(); got != 3 {
		t.Errorf("Expected 3 inner calls (errors never cached), got %d", got)
	}
}

func TestCachedSourceDropsCorruptEntries(t *testing.T) {
	inner := &countingBusinessSource{
		records: []models.BusinessRecord{{ID: "b1", Category: "gym"}},
	}
	cacher := cache.New(time.Minute)
	src := NewCachedBusinessSource("test", inner, cacher, time.Minute)

	// Poison the exact key the decorator will compute.
	key := cache.GenerateKey("test.fetch_by_bounds", boundsQuery{Category: "gym", Bounds: testBounds()})
	cacher.Set(key, []byte("{not json"))

	records, err := src.FetchByBounds(context.Background(), "gym", testBounds())
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected refetched record, got %d", len(records))
	}
	if got := inner.callCount(); got != 1 {
		t.Errorf("Expected 1 inner call after corrupt entry, got %d", got)
	}
}

func TestCachedSourceRespectsTTL(t *testing.T) {
	inner := &countingBusinessSource{
		records: []models.BusinessRecord{{ID: "b1", Category: "gym"}},
	}
	src := NewCachedBusinessSource("test", inner, cache.New(time.Minute), 50*time.Millisecond)

	ctx := context.Background()
	if _, err := src.FetchByBounds(ctx, "gym", testBounds()); err != nil {
		t.Fatalf("fetch error = %v", err)
	}

	time.Sleep(75 * time.Millisecond)

	if _, err := src.FetchByBounds(ctx, "gym", testBounds()); err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if got := inner.callCount(); got != 2 {
		t.Errorf("Expected refetch after TTL expiry, got %d calls", got)
	}
}

func TestCachedSocialSource(t *testing.T) {
	calls := 0
	inner := socialSourceFunc(func(_ context.Context, _ string, _ models.BoundingBox, _ int) ([]models.SocialSignal, error) {
		calls++
		return []models.SocialSignal{
			{ID: "s1", Category: "gym", Type: models.SignalDemand, PostedAt: time.Now().UTC()},
		}, nil
	})
	src := NewCachedSocialSource("test", inner, cache.New(time.Minute), time.Minute)

	ctx := context.Background()
	if _, err := src.Fetch(ctx, "gym", testBounds(), 30); err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	signals, err := src.Fetch(ctx, "gym", testBounds(), 30)
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected 1 inner call, got %d", calls)
	}
	if len(signals) != 1 || signals[0].Type != models.SignalDemand {
		t.Errorf("Cached signal corrupted: %+v", signals)
	}

	// A different window is a different query.
	if _, err := src.Fetch(ctx, "gym", testBounds(), 7); err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 inner calls after window change, got %d", calls)
	}
}
