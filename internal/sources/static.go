// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package sources

import (
	"context"
	"time"

	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/models"
)

// StaticBusinessSource serves a fixed record set, filtered per query. Used
// in tests and as the offline source for demo datasets.
type StaticBusinessSource struct {
	Records []models.BusinessRecord

	// Err, when set, is returned by every fetch.
	Err error
}

// FetchByBounds filters the fixed records by category and box membership.
func (s *StaticBusinessSource) FetchByBounds(ctx context.Context, category string, bounds models.BoundingBox) ([]models.BusinessRecord, error) {
	if err := s.pre(ctx); err != nil {
		return nil, err
	}

	var out []models.BusinessRecord
	for _, r := range s.Records {
		if r.Category == category && bounds.Contains(r.Location.Lat, r.Location.Lon) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FetchByRadius filters the fixed records by category and great-circle
// distance from center.
func (s *StaticBusinessSource) FetchByRadius(ctx context.Context, category string, center models.Coordinate, radiusM float64) ([]models.BusinessRecord, error) {
	if err := s.pre(ctx); err != nil {
		return nil, err
	}

	var out []models.BusinessRecord
	for _, r := range s.Records {
		if r.Category == category && grid.HaversineKm(center, r.Location)*1000 <= radiusM {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *StaticBusinessSource) pre(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Err
}

// StaticSocialSource serves a fixed signal set, filtered per query.
type StaticSocialSource struct {
	Signals []models.SocialSignal

	// Err, when set, is returned by every fetch.
	Err error

	// Now overrides the clock for window filtering in tests.
	Now func() time.Time
}

// Fetch filters the fixed signals by category, posting window, and box
// membership. Signals without a location pass the spatial filter.
func (s *StaticSocialSource) Fetch(ctx context.Context, category string, bounds models.BoundingBox, windowDays int) ([]models.SocialSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	cutoff := time.Time{}
	if windowDays > 0 {
		cutoff = now.AddDate(0, 0, -windowDays)
	}

	var out []models.SocialSignal
	for _, sig := range s.Signals {
		if sig.Category != category {
			continue
		}
		if sig.PostedAt.Before(cutoff) {
			continue
		}
		if sig.Location != nil && !bounds.Contains(sig.Location.Lat, sig.Location.Lon) {
			continue
		}
		out = append(out, sig)
	}
	return out, nil
}

// Compile-time interface checks.
var (
	_ BusinessSource = (*StaticBusinessSource)(nil)
	_ SocialSource   = (*StaticSocialSource)(nil)
)
