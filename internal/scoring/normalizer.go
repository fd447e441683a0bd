// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import "github.com/tomtom215/situs/internal/models"

// FieldMaxima carries the per-field maxima of one normalization run. A field
// whose observed values were all zero or absent carries 1.0, so dividing by
// it yields exactly 0.0 instead of NaN.
type FieldMaxima struct {
	BusinessCount float64            `json:"business_count"`
	SignalCounts  map[string]float64 `json:"signal_counts"`
}

// ComputeMax scans a metrics run and returns the run-wide maximum per field.
// The channel key set is the union across all rows. Empty input yields 1.0
// maxima throughout.
func ComputeMax(metrics map[string]*models.GridMetrics) FieldMaxima {
	maxima := FieldMaxima{SignalCounts: make(map[string]float64)}
	for _, m := range metrics {
		if m == nil {
			continue
		}
		if v := float64(m.BusinessCount); v > maxima.BusinessCount {
			maxima.BusinessCount = v
		}
		for ch, n := range m.SignalCounts {
			if v := float64(n); v > maxima.SignalCounts[ch] {
				maxima.SignalCounts[ch] = v
			}
		}
	}

	if maxima.BusinessCount <= 0 {
		maxima.BusinessCount = 1.0
	}
	for ch, v := range maxima.SignalCounts {
		if v <= 0 {
			maxima.SignalCounts[ch] = 1.0
		}
	}
	return maxima
}

// Normalize fills m's normalized fields from its raw counts and the run-wide
// maxima: SupplyNorm from the business count, DemandNorms per channel named
// in maxima. A channel missing from m counts as 0 before dividing. Every
// result lands in [0,1]; a value equal to its maximum becomes exactly 1.0
// and a zero raw value becomes exactly 0.0.
func Normalize(m *models.GridMetrics, maxima FieldMaxima) {
	if m == nil {
		return
	}
	m.SupplyNorm = normalizeField(float64(m.BusinessCount), maxima.BusinessCount)
	norms := make(map[string]float64, len(maxima.SignalCounts))
	for ch, max := range maxima.SignalCounts {
		norms[ch] = normalizeField(float64(m.SignalCounts[ch]), max)
	}
	m.DemandNorms = norms
}

// NormalizeAll normalizes every row of a metrics run in place.
func NormalizeAll(metrics map[string]*models.GridMetrics, maxima FieldMaxima) {
	for _, m := range metrics {
		Normalize(m, maxima)
	}
}

// normalizeField guards against caller-built maxima that skipped the
// zero-promotion in ComputeMax.
func normalizeField(v, max float64) float64 {
	if max <= 0 {
		max = 1
	}
	return clamp01(v / max)
}
