// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"strconv"
	"strings"

	"github.com/tomtom215/situs/internal/models"
)

// FeatureSource resolves a named feature to its numeric value. The boolean is
// false when the feature is undefined for this source — undefined is distinct
// from zero, and predicates over undefined features do not fire (except the
// "absent" operator, which fires only then).
type FeatureSource interface {
	Feature(name string) (float64, bool)
}

// MetricsFeatures exposes one grid's normalized metrics to rule tables.
//
// Resolved names:
//
//	supply_norm          normalized business count [0,1]
//	supply_headroom      1 - supply_norm
//	business_count       raw competing business count
//	total_signals        raw social-signal count summed over channels
//	demand_<ch>_norm     normalized per-channel demand, e.g. demand_reddit_norm
//	<ch>_count           raw per-channel count, e.g. instagram_count
type MetricsFeatures struct {
	Metrics models.GridMetrics
}

// Feature implements FeatureSource.
func (f MetricsFeatures) Feature(name string) (float64, bool) {
	switch name {
	case "supply_norm":
		return f.Metrics.SupplyNorm, true
	case "supply_headroom":
		return 1 - f.Metrics.SupplyNorm, true
	case "business_count":
		return float64(f.Metrics.BusinessCount), true
	case "total_signals":
		return float64(f.Metrics.TotalSignals()), true
	}

	if rest, ok := strings.CutPrefix(name, "demand_"); ok {
		if ch, ok := strings.CutSuffix(rest, "_norm"); ok {
			v, present := f.Metrics.DemandNorms[ch]
			return v, present
		}
	}
	if ch, ok := strings.CutSuffix(name, "_count"); ok {
		v, present := f.Metrics.SignalCounts[ch]
		return float64(v), present
	}

	return 0, false
}

// KnownFeature reports whether a table of the given kind could ever resolve
// the named feature. Fixed names match exactly; channel, landmark, and
// category segments depend on configuration, so patterned names are checked
// structurally, mirroring the resolution order of the matching source. Rule
// tables reject unresolvable names at load — a misspelled feature would
// otherwise never fire, or with the "absent" operator would always fire.
func KnownFeature(kind TableKind, name string) bool {
	switch kind {
	case KindGrid:
		switch name {
		case "supply_norm", "supply_headroom", "business_count", "total_signals":
			return true
		}
		if rest, ok := strings.CutPrefix(name, "demand_"); ok {
			if ch, ok := strings.CutSuffix(rest, "_norm"); ok && ch != "" {
				return true
			}
		}
		ch, ok := strings.CutSuffix(name, "_count")
		return ok && ch != ""
	case KindPoint:
		switch name {
		case "competitor_density", "complementary_density", "total_density",
			"avg_area_rating", "review_volume", "rated_count":
			return true
		}
		if rest, ok := strings.CutPrefix(name, "nearest_"); ok {
			lm, ok := strings.CutSuffix(rest, "_km")
			return ok && lm != ""
		}
		if cat, ok := strings.CutPrefix(name, "density_"); ok {
			return cat != ""
		}
		if lm, rest, ok := strings.Cut(name, "_within_"); ok {
			km, ok := strings.CutSuffix(rest, "km")
			if !ok || lm == "" || km == "" {
				return false
			}
			_, err := strconv.ParseFloat(km, 64)
			return err == nil
		}
	}
	return false
}

// BEVFeatures exposes a business environment vector to rule tables for one
// target category. Complementary lists the categories counted as supporting
// ecosystem for the target (juice bars near gyms, bakeries near cafes).
//
// Resolved names:
//
//	competitor_density      businesses of the target category in radius
//	complementary_density   businesses of configured complementary categories
//	total_density           all businesses in radius
//	avg_area_rating         mean rating of rated businesses (absent if none rated)
//	review_volume           total review count in radius
//	rated_count             businesses carrying a rating
//	nearest_<landmark>_km   distance to nearest landmark (absent if none found)
//	density_<category>      density of an arbitrary category
//	<proximity flag name>   1 or 0, e.g. mall_within_1km
type BEVFeatures struct {
	BEV           models.BusinessEnvironmentVector
	Category      string
	Complementary []string
}

// Feature implements FeatureSource.
func (f BEVFeatures) Feature(name string) (float64, bool) {
	switch name {
	case "competitor_density":
		return float64(f.BEV.Density(f.Category)), true
	case "complementary_density":
		sum := 0
		for _, cat := range f.Complementary {
			sum += f.BEV.Density(cat)
		}
		return float64(sum), true
	case "total_density":
		sum := 0
		for _, n := range f.BEV.DensityCounts {
			sum += n
		}
		return float64(sum), true
	case "avg_area_rating":
		if f.BEV.AvgRating == nil {
			return 0, false
		}
		return *f.BEV.AvgRating, true
	case "review_volume":
		return float64(f.BEV.TotalReviews), true
	case "rated_count":
		return float64(f.BEV.RatedCount), true
	}

	if rest, ok := strings.CutPrefix(name, "nearest_"); ok {
		if lm, ok := strings.CutSuffix(rest, "_km"); ok {
			return f.BEV.NearestLandmarkKm(lm)
		}
	}
	if flag, present := f.BEV.ProximityFlags[name]; present {
		if flag {
			return 1, true
		}
		return 0, true
	}
	if cat, ok := strings.CutPrefix(name, "density_"); ok {
		return float64(f.BEV.Density(cat)), true
	}

	return 0, false
}
