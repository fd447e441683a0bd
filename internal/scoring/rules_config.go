// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/situs/internal/models"
)

// GridWeights configures the weighted demand/supply formula encoded in the
// default grid tables. Each weight becomes the delta of one scaled rule, so a
// grid's score is
//
//	supply*supply_headroom + sum over channels of channels[ch]*demand_<ch>_norm
//
// with every factor already normalized to [0,1].
type GridWeights struct {
	Supply   float64            `json:"supply" koanf:"supply"`
	Channels map[string]float64 `json:"channels" koanf:"channels"`
}

// DefaultGridWeights returns the stock formula weights: supply headroom 0.40,
// Instagram demand 0.25, Reddit demand 0.35.
func DefaultGridWeights() GridWeights {
	return GridWeights{
		Supply: 0.40,
		Channels: map[string]float64{
			"instagram": 0.25,
			"reddit":    0.35,
		},
	}
}

// weightSumEps bounds the allowed drift of a weight set away from 1.0.
const weightSumEps = 1e-9

// Validate checks that every weight lies in [0,1] and that the weights sum to
// 1.0 within weightSumEps, which keeps grid scores true weighted averages
// instead of relying on the per-step clamp. Violations are
// models.ErrConfiguration.
func (w GridWeights) Validate() error {
	if w.Supply < 0 || w.Supply > 1 {
		return fmt.Errorf("%w: supply weight %v outside [0,1]", models.ErrConfiguration, w.Supply)
	}
	if len(w.Channels) == 0 {
		return fmt.Errorf("%w: grid weights declare no channels", models.ErrConfiguration)
	}
	sum := w.Supply
	for ch, cw := range w.Channels {
		if ch == "" {
			return fmt.Errorf("%w: grid weights contain an empty channel name", models.ErrConfiguration)
		}
		if cw < 0 || cw > 1 {
			return fmt.Errorf("%w: channel %q weight %v outside [0,1]", models.ErrConfiguration, ch, cw)
		}
		sum += cw
	}
	if math.Abs(sum-1.0) > weightSumEps {
		return fmt.Errorf("%w: grid weights sum to %v, want 1.0", models.ErrConfiguration, sum)
	}
	return nil
}

// ChannelNames returns the configured channel names in sorted order.
func (w GridWeights) ChannelNames() []string {
	names := make([]string, 0, len(w.Channels))
	for ch := range w.Channels {
		names = append(names, ch)
	}
	sort.Strings(names)
	return names
}

// DefaultTables builds the stock rule tables for the given categories: per
// category, one grid table carrying the weighted demand/supply formula and
// one point table with site-quality threshold rules.
func DefaultTables(categories []string, weights GridWeights) ([]RuleTable, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: default tables need at least one category", models.ErrConfiguration)
	}

	tables := make([]RuleTable, 0, 2*len(categories))
	for _, cat := range categories {
		tables = append(tables, defaultGridTable(cat, weights), defaultPointTable(cat))
	}
	return tables, nil
}

// defaultGridTable encodes the sweep formula as unconditional scaled rules
// over a base of zero: each rule contributes weight*feature, so the final
// score is the weighted sum itself.
func defaultGridTable(category string, w GridWeights) RuleTable {
	rules := make([]Rule, 0, 1+len(w.Channels))
	rules = append(rules, Rule{
		Name:    "supply_headroom",
		Delta:   w.Supply,
		ScaleBy: "supply_headroom",
		Reason:  "low competing supply relative to region peers",
	})
	for _, ch := range w.ChannelNames() {
		rules = append(rules, Rule{
			Name:    "demand_" + ch,
			Delta:   w.Channels[ch],
			ScaleBy: fmt.Sprintf("demand_%s_norm", ch),
			Reason:  fmt.Sprintf("%s demand signals relative to region peers", ch),
		})
	}
	return RuleTable{Category: category, Kind: KindGrid, Base: 0, Rules: rules}
}

// defaultPointTable holds the stock site-quality thresholds applied to a
// business environment vector. Categories share the same thresholds until an
// operator overrides them in a rules file.
func defaultPointTable(category string) RuleTable {
	return RuleTable{
		Category: category,
		Kind:     KindPoint,
		Base:     DefaultBase,
		Rules: []Rule{
			{
				Name:   "no_direct_competitors",
				When:   &Predicate{Feature: "competitor_density", Op: OpEQ, Value: 0},
				Delta:  0.20,
				Reason: "no direct competitors inside the radius",
			},
			{
				Name:   "saturated_competition",
				When:   &Predicate{Feature: "competitor_density", Op: OpGE, Value: 5},
				Delta:  -0.20,
				Reason: "five or more direct competitors inside the radius",
			},
			{
				Name:   "complementary_ecosystem",
				When:   &Predicate{Feature: "complementary_density", Op: OpGE, Value: 3},
				Delta:  0.10,
				Reason: "strong complementary business ecosystem nearby",
			},
			{
				Name:   "mall_adjacency",
				When:   &Predicate{Feature: "mall_within_1km", Op: OpEQ, Value: 1},
				Delta:  0.10,
				Reason: "shopping mall within one kilometre",
			},
			{
				Name:   "university_proximity",
				When:   &Predicate{Feature: "nearest_university_km", Op: OpLE, Value: 2},
				Delta:  0.05,
				Reason: "university within two kilometres",
			},
			{
				Name:   "weak_incumbents",
				When:   &Predicate{Feature: "avg_area_rating", Op: OpLE, Value: 3.5},
				Delta:  0.05,
				Reason: "surrounding businesses rate poorly",
			},
			{
				Name:   "entrenched_incumbents",
				When:   &Predicate{Feature: "review_volume", Op: OpGE, Value: 500},
				Delta:  -0.05,
				Reason: "incumbents hold heavy review volume",
			},
		},
	}
}

// rulesFileKey is the top-level key holding the table list in a rules file.
const rulesFileKey = "tables"

// LoadTables reads rule tables from a YAML file of the form:
//
//	tables:
//	  - category: cafe
//	    kind: point
//	    base: 0.5
//	    rules:
//	      - name: no_direct_competitors
//	        when: {feature: competitor_density, op: eq, value: 0}
//	        delta: 0.20
//	        reason: no direct competitors inside the radius
//
// Every table is validated before the slice is returned so a bad file fails
// at startup rather than at query time.
func LoadTables(path string) ([]RuleTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load rules file %s: %w", path, err)
	}

	var tables []RuleTable
	if err := k.Unmarshal(rulesFileKey, &tables); err != nil {
		return nil, fmt.Errorf("%w: parse rules file %s: %v", models.ErrConfiguration, path, err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: rules file %s declares no tables", models.ErrConfiguration, path)
	}
	for i := range tables {
		if err := tables[i].Validate(); err != nil {
			return nil, fmt.Errorf("rules file %s, table %d: %w", path, i, err)
		}
	}
	return tables, nil
}
