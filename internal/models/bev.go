// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

// BusinessEnvironmentVector (BEV) is a feature snapshot of a point's
// surroundings, computed fresh per query from one business-source fetch.
// It backs point-level scoring and the contextual evaluator prompt.
//
// LandmarkDistanceKm maps a landmark category ("mall", "university", ...) to
// the straight-line distance to its nearest instance. A landmark with no
// instance inside the search radius is simply absent from the map: absence
// means "undefined", never 0 km and never infinity, and JSON output omits it.
//
// AvgRating is nil when no fetched business carries a rating.
type BusinessEnvironmentVector struct {
	Center  Coordinate `json:"center"`
	RadiusM float64    `json:"radius_m"`

	DensityCounts      map[string]int     `json:"density_counts"`
	LandmarkDistanceKm map[string]float64 `json:"landmark_distance_km,omitempty"`

	AvgRating    *float64 `json:"avg_rating,omitempty"`
	TotalReviews int      `json:"total_reviews"`
	RatedCount   int      `json:"rated_count"`

	ProximityFlags map[string]bool `json:"proximity_flags,omitempty"`
}

// NearestLandmarkKm returns the distance to the nearest instance of the
// landmark category and whether one was found.
func (v BusinessEnvironmentVector) NearestLandmarkKm(landmark string) (float64, bool) {
	d, ok := v.LandmarkDistanceKm[landmark]
	return d, ok
}

// Density returns the business count for a category, zero when the category
// was not observed.
func (v BusinessEnvironmentVector) Density(category string) int {
	return v.DensityCounts[category]
}
