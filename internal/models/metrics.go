// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

// GridMetrics holds the raw and normalized signal counts for one
// (grid, category) pair within a single scoring run.
//
// Raw counts: BusinessCount plus one entry per configured social channel in
// SignalCounts (e.g. "instagram", "reddit"). Normalized fields are derived by
// the run's Normalizer and always lie in [0,1]: SupplyNorm rescales
// BusinessCount against the run-wide maximum, DemandNorms rescales each
// channel count the same way.
//
// GridMetrics are created fresh on every scoring run and never persisted or
// shared across requests.
type GridMetrics struct {
	GridID   string `json:"grid_id"`
	Category string `json:"category"`

	BusinessCount int            `json:"business_count"`
	SignalCounts  map[string]int `json:"signal_counts"`

	SupplyNorm  float64            `json:"supply_norm"`
	DemandNorms map[string]float64 `json:"demand_norms"`
}

// TotalSignals returns the sum of all channel counts. Used by the rationale
// templates ("high demand (N posts), ...").
func (m GridMetrics) TotalSignals() int {
	total := 0
	for _, n := range m.SignalCounts {
		total += n
	}
	return total
}
