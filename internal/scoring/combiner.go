// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"fmt"
	"math"

	"github.com/tomtom215/situs/internal/models"
)

// Weights blends the deterministic rule score with the contextual probability
// in full mode: final = Rule*ruleScore + Contextual*probability.
type Weights struct {
	Rule       float64 `json:"rule" koanf:"rule"`
	Contextual float64 `json:"contextual" koanf:"contextual"`
}

// DefaultWeights returns the stock blend: rule 0.65, contextual 0.35.
func DefaultWeights() Weights {
	return Weights{Rule: 0.65, Contextual: 0.35}
}

// Tiers holds the suitability thresholds. Thresholds are closed below: a
// score exactly on a boundary takes the higher tier.
type Tiers struct {
	Excellent float64 `json:"excellent" koanf:"excellent"`
	Good      float64 `json:"good" koanf:"good"`
	Moderate  float64 `json:"moderate" koanf:"moderate"`
	Poor      float64 `json:"poor" koanf:"poor"`
}

// DefaultTiers returns the stock thresholds: excellent 0.80, good 0.65,
// moderate 0.45, poor 0.25.
func DefaultTiers() Tiers {
	return Tiers{Excellent: 0.80, Good: 0.65, Moderate: 0.45, Poor: 0.25}
}

// Combiner folds a rule score and an optional contextual assessment into the
// final score and maps it to a suitability tier. Immutable after
// construction; concurrent evaluations share it without locking.
type Combiner struct {
	weights Weights
	tiers   Tiers
}

// NewCombiner validates the blend weights (each in [0,1], summing to 1.0
// within 1e-9) and the tier thresholds (strictly descending inside (0,1]).
// Violations are models.ErrConfiguration.
func NewCombiner(weights Weights, tiers Tiers) (*Combiner, error) {
	if weights.Rule < 0 || weights.Rule > 1 || weights.Contextual < 0 || weights.Contextual > 1 {
		return nil, fmt.Errorf("%w: blend weights rule=%v contextual=%v outside [0,1]", models.ErrConfiguration, weights.Rule, weights.Contextual)
	}
	if sum := weights.Rule + weights.Contextual; math.Abs(sum-1.0) > weightSumEps {
		return nil, fmt.Errorf("%w: blend weights sum to %v, want 1.0", models.ErrConfiguration, sum)
	}
	if !(tiers.Excellent <= 1 && tiers.Excellent > tiers.Good && tiers.Good > tiers.Moderate && tiers.Moderate > tiers.Poor && tiers.Poor > 0) {
		return nil, fmt.Errorf("%w: suitability tiers %+v must descend strictly inside (0,1]", models.ErrConfiguration, tiers)
	}
	return &Combiner{weights: weights, tiers: tiers}, nil
}

// Combine produces the final score and whether the result is rule-only.
//
//   - fast mode: the rule score verbatim; the assessment is ignored.
//   - full mode with an assessment: the weighted blend.
//   - full mode without an assessment: the rule score, flagged rule-only.
//     This is the degraded path taken when the contextual evaluator failed
//     or timed out.
//
// Modes other than ModeFull behave as fast; mode validation belongs to the
// request layer.
func (c *Combiner) Combine(ruleScore float64, assessment *models.ContextualAssessment, mode string) (score float64, ruleOnly bool) {
	if mode != models.ModeFull {
		return clamp01(ruleScore), false
	}
	if assessment == nil {
		return clamp01(ruleScore), true
	}
	blended := c.weights.Rule*ruleScore + c.weights.Contextual*clamp01(assessment.Probability)
	return clamp01(blended), false
}

// Suitability maps a final score to its tier.
func (c *Combiner) Suitability(score float64) models.Suitability {
	switch {
	case score >= c.tiers.Excellent:
		return models.SuitabilityExcellent
	case score >= c.tiers.Good:
		return models.SuitabilityGood
	case score >= c.tiers.Moderate:
		return models.SuitabilityModerate
	case score >= c.tiers.Poor:
		return models.SuitabilityPoor
	default:
		return models.SuitabilityNotRecommended
	}
}

// Finalize rewrites a category score with the combined result: final score,
// suitability tier, and, when a full-mode assessment contributed, its
// reasoning merged into the factor lists (risks become concerns, key factors
// become positive factors). Returns the finished score and the rule-only
// flag from Combine.
func (c *Combiner) Finalize(cs models.CategoryScore, assessment *models.ContextualAssessment, mode string) (models.CategoryScore, bool) {
	final, ruleOnly := c.Combine(cs.Score, assessment, mode)
	cs.Score = final
	cs.Suitability = c.Suitability(final)

	if mode == models.ModeFull && assessment != nil {
		if assessment.Reasoning != "" {
			cs.Reasoning = assessment.Reasoning
		}
		cs.Concerns = append(cs.Concerns, assessment.Risks...)
		cs.PositiveFactors = append(cs.PositiveFactors, assessment.KeyFactors...)
	}
	return cs, ruleOnly
}
