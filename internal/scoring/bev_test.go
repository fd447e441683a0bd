// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/tomtom215/situs/internal/models"
)

type stubFetcher struct {
	records []models.BusinessRecord
	err     error
}

func (s *stubFetcher) BusinessesWithin(_ context.Context, _ models.Coordinate, _ float64) ([]models.BusinessRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func ratingPtr(v float64) *float64 { return &v }

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	tests := []struct {
		name        string
		fetcher     BusinessFetcher
		landmarks   []string
		proximityKm map[string]float64
	}{
		{"nil fetcher", nil, DefaultLandmarks(), DefaultProximityKm()},
		{"empty landmark name", fetcher, []string{"mall", ""}, nil},
		{"duplicate landmark", fetcher, []string{"mall", "mall"}, nil},
		{"proximity without landmark", fetcher, []string{"mall"}, map[string]float64{"park": 2}},
		{"nonpositive proximity radius", fetcher, []string{"mall"}, map[string]float64{"mall": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewGenerator(tt.fetcher, tt.landmarks, tt.proximityKm); !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("NewGenerator() error = %v, want models.ErrConfiguration", err)
			}
		})
	}
}

func TestGenerateDerivesVector(t *testing.T) {
	t.Parallel()

	center := models.Coordinate{Lat: 24.86, Lon: 67.0}
	// 0.004 degrees of latitude is roughly 445 metres.
	fetcher := &stubFetcher{records: []models.BusinessRecord{
		{ID: "c1", Category: "cafe", Location: center, Rating: ratingPtr(4.0), ReviewCount: 120},
		{ID: "c2", Category: "cafe", Location: models.Coordinate{Lat: 24.861, Lon: 67.001}, ReviewCount: 30},
		{ID: "g1", Category: "gym", Location: models.Coordinate{Lat: 24.859, Lon: 67.0}, Rating: ratingPtr(3.0), ReviewCount: 50},
		{ID: "m1", Category: "mall", Location: models.Coordinate{Lat: 24.864, Lon: 67.0}},
	}}

	gen, err := NewGenerator(fetcher, []string{"mall", "university"}, map[string]float64{"mall": 1})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	bev, err := gen.Generate(context.Background(), center, 1000)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if bev.Center != center || bev.RadiusM != 1000 {
		t.Errorf("Generate() center/radius = %v/%v, want %v/1000", bev.Center, bev.RadiusM, center)
	}
	if bev.Density("cafe") != 2 || bev.Density("gym") != 1 || bev.Density("mall") != 1 {
		t.Errorf("DensityCounts = %v, want cafe:2 gym:1 mall:1", bev.DensityCounts)
	}
	if bev.TotalReviews != 200 {
		t.Errorf("TotalReviews = %d, want 200", bev.TotalReviews)
	}
	if bev.RatedCount != 2 {
		t.Errorf("RatedCount = %d, want 2", bev.RatedCount)
	}
	if bev.AvgRating == nil || math.Abs(*bev.AvgRating-3.5) > 1e-9 {
		t.Errorf("AvgRating = %v, want 3.5", bev.AvgRating)
	}

	d, found := bev.NearestLandmarkKm("mall")
	if !found || math.Abs(d-0.4448) > 1e-3 {
		t.Errorf("NearestLandmarkKm(mall) = %v (found %v), want about 0.4448 km", d, found)
	}
	if _, found := bev.NearestLandmarkKm("university"); found {
		t.Error("NearestLandmarkKm(university) found = true, want absent when none fetched")
	}
	if !bev.ProximityFlags["mall_within_1km"] {
		t.Errorf("ProximityFlags = %v, want mall_within_1km true", bev.ProximityFlags)
	}
}

func TestDeriveNearestPicksClosestInstance(t *testing.T) {
	t.Parallel()

	center := models.Coordinate{Lat: 24.86, Lon: 67.0}
	gen, err := NewGenerator(&stubFetcher{}, []string{"mall"}, nil)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	bev := gen.Derive(center, 2000, []models.BusinessRecord{
		{ID: "far", Category: "mall", Location: models.Coordinate{Lat: 24.87, Lon: 67.0}},
		{ID: "near", Category: "mall", Location: models.Coordinate{Lat: 24.864, Lon: 67.0}},
	})

	d, found := bev.NearestLandmarkKm("mall")
	if !found || math.Abs(d-0.4448) > 1e-3 {
		t.Errorf("NearestLandmarkKm(mall) = %v (found %v), want the closer instance at about 0.4448 km", d, found)
	}
}

func TestDeriveProximityFlagRespectsRadius(t *testing.T) {
	t.Parallel()

	center := models.Coordinate{Lat: 24.86, Lon: 67.0}
	gen, err := NewGenerator(&stubFetcher{}, []string{"mall"}, map[string]float64{"mall": 1})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	// 0.018 degrees of latitude is roughly 2 km, outside the 1 km flag radius.
	bev := gen.Derive(center, 5000, []models.BusinessRecord{
		{ID: "m1", Category: "mall", Location: models.Coordinate{Lat: 24.878, Lon: 67.0}},
	})

	if bev.ProximityFlags["mall_within_1km"] {
		t.Errorf("ProximityFlags = %v, want mall_within_1km false for a mall 2 km out", bev.ProximityFlags)
	}
	if _, found := bev.NearestLandmarkKm("mall"); !found {
		t.Error("NearestLandmarkKm(mall) absent, want present even outside the flag radius")
	}
}

func TestDeriveEmptyArea(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator(&stubFetcher{}, DefaultLandmarks(), DefaultProximityKm())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	bev := gen.Derive(models.Coordinate{Lat: 24.86, Lon: 67.0}, 1000, nil)

	if len(bev.DensityCounts) != 0 {
		t.Errorf("DensityCounts = %v, want empty", bev.DensityCounts)
	}
	if bev.AvgRating != nil {
		t.Errorf("AvgRating = %v, want nil when nothing is rated", *bev.AvgRating)
	}
	if len(bev.LandmarkDistanceKm) != 0 {
		t.Errorf("LandmarkDistanceKm = %v, want empty", bev.LandmarkDistanceKm)
	}
	if flag, ok := bev.ProximityFlags["mall_within_1km"]; !ok || flag {
		t.Errorf("ProximityFlags = %v, want explicit false flags", bev.ProximityFlags)
	}
}

func TestGeneratePropagatesUpstreamFailure(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{err: fmt.Errorf("%w: overpass timeout", models.ErrUpstreamUnavailable)}
	gen, err := NewGenerator(fetcher, DefaultLandmarks(), DefaultProximityKm())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	if _, err := gen.Generate(context.Background(), models.Coordinate{Lat: 24.86, Lon: 67.0}, 1000); !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("Generate() error = %v, want models.ErrUpstreamUnavailable", err)
	}
}

func TestProximityFlagName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		landmark string
		km       float64
		want     string
	}{
		{"mall", 1, "mall_within_1km"},
		{"bus_stop", 0.5, "bus_stop_within_0.5km"},
		{"park", 2.5, "park_within_2.5km"},
	}

	for _, tt := range tests {
		if got := ProximityFlagName(tt.landmark, tt.km); got != tt.want {
			t.Errorf("ProximityFlagName(%q, %v) = %q, want %q", tt.landmark, tt.km, got, tt.want)
		}
	}
}
