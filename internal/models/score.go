// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

// Suitability is the categorical tier derived from a final score.
type Suitability string

// Suitability tiers in descending order of favorability. Threshold mapping
// lives in the scoring package; tiers are closed below, so a score exactly on
// a boundary takes the higher tier.
const (
	SuitabilityExcellent      Suitability = "excellent"
	SuitabilityGood           Suitability = "good"
	SuitabilityModerate       Suitability = "moderate"
	SuitabilityPoor           Suitability = "poor"
	SuitabilityNotRecommended Suitability = "not_recommended"
)

// RuleTraceEntry records one applied rule during a rule-table evaluation:
// the rule's name, the delta it actually contributed (after weighting but
// before clamping), and its human-readable reason. Entries appear in table
// order. Purely diagnostic and immutable once produced.
type RuleTraceEntry struct {
	Rule   string  `json:"rule"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// CategoryScore is the engine's verdict for one category at one location.
//
// Score is the final [0,1] opportunity score. PositiveFactors and Concerns
// hold the reasons of applied rules split by delta sign. RuleTrace preserves
// the full application order for diagnostics and is omitted from JSON when
// tracing is disabled.
type CategoryScore struct {
	Score           float64          `json:"score"`
	Suitability     Suitability      `json:"suitability"`
	Reasoning       string           `json:"reasoning,omitempty"`
	PositiveFactors []string         `json:"positive_factors"`
	Concerns        []string         `json:"concerns"`
	RuleTrace       []RuleTraceEntry `json:"rule_trace,omitempty"`
}

// ContextualAssessment is the externally supplied probabilistic opinion
// consumed in full-mode scoring. The engine never produces one; it only
// validates the probability range and blends it into the final score.
type ContextualAssessment struct {
	Probability float64  `json:"probability"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Risks       []string `json:"risks,omitempty"`
	KeyFactors  []string `json:"key_factors,omitempty"`
}
