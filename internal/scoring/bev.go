// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/models"
)

// BusinessFetcher is the slice of the business-data source the environment
// generator needs: every record within the radius, across all categories.
// Implementations surface transport failures as models.ErrUpstreamUnavailable
// and an empty area as an empty slice.
type BusinessFetcher interface {
	BusinessesWithin(ctx context.Context, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error)
}

// Generator derives business environment vectors for point queries. One
// upstream fetch per point; everything after that is a pure function of the
// fetched records, so a single fetch can back several category evaluations.
type Generator struct {
	fetcher     BusinessFetcher
	landmarks   []string
	proximityKm map[string]float64
}

// DefaultLandmarks lists the landmark categories probed for nearest-instance
// distances when the configuration does not override them.
func DefaultLandmarks() []string {
	return []string{"mall", "university", "main_road"}
}

// DefaultProximityKm maps landmark categories to the radii of their stock
// proximity flags. The flag for "mall" at 1 km surfaces as the feature
// mall_within_1km.
func DefaultProximityKm() map[string]float64 {
	return map[string]float64{"mall": 1}
}

// NewGenerator wires a generator to its business source. Proximity flags are
// derived from landmark distances, so every proximity key must also appear in
// the landmark list; violations are models.ErrConfiguration.
func NewGenerator(fetcher BusinessFetcher, landmarks []string, proximityKm map[string]float64) (*Generator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: environment generator needs a business fetcher", models.ErrConfiguration)
	}

	known := make(map[string]struct{}, len(landmarks))
	for _, lm := range landmarks {
		if lm == "" {
			return nil, fmt.Errorf("%w: landmark list contains an empty category", models.ErrConfiguration)
		}
		if _, dup := known[lm]; dup {
			return nil, fmt.Errorf("%w: landmark %q listed twice", models.ErrConfiguration, lm)
		}
		known[lm] = struct{}{}
	}
	for lm, km := range proximityKm {
		if _, ok := known[lm]; !ok {
			return nil, fmt.Errorf("%w: proximity flag for %q has no matching landmark", models.ErrConfiguration, lm)
		}
		if km <= 0 {
			return nil, fmt.Errorf("%w: proximity radius for %q must be positive, got %v", models.ErrConfiguration, lm, km)
		}
	}

	return &Generator{
		fetcher:     fetcher,
		landmarks:   append([]string(nil), landmarks...),
		proximityKm: proximityKm,
	}, nil
}

// Generate fetches the surroundings of center once and derives the vector.
func (g *Generator) Generate(ctx context.Context, center models.Coordinate, radiusM float64) (models.BusinessEnvironmentVector, error) {
	records, err := g.Fetch(ctx, center, radiusM)
	if err != nil {
		return models.BusinessEnvironmentVector{}, err
	}
	return g.Derive(center, radiusM, records), nil
}

// Fetch pulls every business record within radiusM of center in one upstream
// call. An empty area is a valid empty slice, never an error.
func (g *Generator) Fetch(ctx context.Context, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	records, err := g.fetcher.BusinessesWithin(ctx, center, radiusM)
	if err != nil {
		return nil, fmt.Errorf("business environment fetch at (%.5f, %.5f): %w", center.Lat, center.Lon, err)
	}
	return records, nil
}

// Derive computes the environment vector from an already fetched record set.
// Pure function of its inputs: per-category densities, nearest-landmark
// distances (absent when no instance was fetched), area rating and review
// aggregates, and the configured proximity flags.
func (g *Generator) Derive(center models.Coordinate, radiusM float64, records []models.BusinessRecord) models.BusinessEnvironmentVector {
	bev := models.BusinessEnvironmentVector{
		Center:        center,
		RadiusM:       radiusM,
		DensityCounts: make(map[string]int),
	}

	var ratingSum float64
	for _, r := range records {
		bev.DensityCounts[r.Category]++
		bev.TotalReviews += r.ReviewCount
		if r.Rating != nil {
			ratingSum += *r.Rating
			bev.RatedCount++
		}
	}
	if bev.RatedCount > 0 {
		avg := ratingSum / float64(bev.RatedCount)
		bev.AvgRating = &avg
	}

	for _, lm := range g.landmarks {
		nearest, found := nearestKm(center, lm, records)
		if !found {
			continue
		}
		if bev.LandmarkDistanceKm == nil {
			bev.LandmarkDistanceKm = make(map[string]float64, len(g.landmarks))
		}
		bev.LandmarkDistanceKm[lm] = nearest
	}

	if len(g.proximityKm) > 0 {
		bev.ProximityFlags = make(map[string]bool, len(g.proximityKm))
		for lm, km := range g.proximityKm {
			d, found := bev.LandmarkDistanceKm[lm]
			bev.ProximityFlags[ProximityFlagName(lm, km)] = found && d <= km
		}
	}

	return bev
}

// Landmarks returns the probed landmark categories in configured order.
func (g *Generator) Landmarks() []string {
	out := make([]string, len(g.landmarks))
	copy(out, g.landmarks)
	return out
}

// ProximityFlagNames returns the sorted names of the flags this generator
// emits, for documentation endpoints.
func (g *Generator) ProximityFlagNames() []string {
	out := make([]string, 0, len(g.proximityKm))
	for lm, km := range g.proximityKm {
		out = append(out, ProximityFlagName(lm, km))
	}
	sort.Strings(out)
	return out
}

// ProximityFlagName builds the feature name of a proximity flag, e.g.
// ("mall", 1) -> "mall_within_1km". The radius renders without a trailing
// ".0" so flag names stay stable feature keys.
func ProximityFlagName(landmark string, km float64) string {
	return landmark + "_within_" + strconv.FormatFloat(km, 'f', -1, 64) + "km"
}

// nearestKm scans records for the closest instance of the landmark category.
func nearestKm(center models.Coordinate, landmark string, records []models.BusinessRecord) (float64, bool) {
	best := 0.0
	found := false
	for _, r := range records {
		if r.Category != landmark {
			continue
		}
		d := grid.HaversineKm(center, r.Location)
		if !found || d < best {
			best = d
			found = true
		}
	}
	return best, found
}
