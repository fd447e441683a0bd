// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package grid

import (
	"math"
	"math/rand"
	"testing"

	"github.com/tomtom215/situs/internal/models"
)

func TestHaversineCoincidentPointsAreZero(t *testing.T) {
	t.Parallel()

	p := models.Coordinate{Lat: 24.82, Lon: 67.03}
	if d := HaversineKm(p, p); d != 0.0 {
		t.Errorf("HaversineKm(p, p) = %v, want exactly 0.0", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 100; i++ {
		a := models.Coordinate{Lat: -80 + rng.Float64()*160, Lon: -180 + rng.Float64()*360}
		b := models.Coordinate{Lat: -80 + rng.Float64()*160, Lon: -180 + rng.Float64()*360}

		ab := HaversineKm(a, b)
		ba := HaversineKm(b, a)
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("asymmetric distance: %v vs %v for %+v, %+v", ab, ba, a, b)
		}
		if ab < 0 {
			t.Fatalf("negative distance %v for %+v, %+v", ab, a, b)
		}
	}
}

func TestHaversineKnownDistances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      models.Coordinate
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "karachi to lahore",
			a:         models.Coordinate{Lat: 24.8607, Lon: 67.0011},
			b:         models.Coordinate{Lat: 31.5204, Lon: 74.3587},
			wantKm:    1033,
			tolerance: 15,
		},
		{
			name:      "one latitude degree",
			a:         models.Coordinate{Lat: 24.0, Lon: 67.0},
			b:         models.Coordinate{Lat: 25.0, Lon: 67.0},
			wantKm:    111.195,
			tolerance: 0.01,
		},
		{
			name:      "hundred meters of latitude",
			a:         models.Coordinate{Lat: 24.82, Lon: 67.03},
			b:         models.Coordinate{Lat: 24.82 + 100.0/metersPerDegreeLat, Lon: 67.03},
			wantKm:    0.0999,
			tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm = %v, want %v +/- %v", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}
