// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/situs/internal/models"
)

func defaultCombiner(t *testing.T) *Combiner {
	t.Helper()
	c, err := NewCombiner(DefaultWeights(), DefaultTiers())
	if err != nil {
		t.Fatalf("NewCombiner() error = %v", err)
	}
	return c
}

func TestNewCombinerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		weights Weights
		tiers   Tiers
	}{
		{"weights under one", Weights{Rule: 0.65, Contextual: 0.25}, DefaultTiers()},
		{"weights over one", Weights{Rule: 0.65, Contextual: 0.45}, DefaultTiers()},
		{"negative weight", Weights{Rule: 1.2, Contextual: -0.2}, DefaultTiers()},
		{"tiers not descending", DefaultWeights(), Tiers{Excellent: 0.65, Good: 0.80, Moderate: 0.45, Poor: 0.25}},
		{"tier at zero", DefaultWeights(), Tiers{Excellent: 0.80, Good: 0.65, Moderate: 0.45, Poor: 0}},
		{"tier above one", DefaultWeights(), Tiers{Excellent: 1.1, Good: 0.65, Moderate: 0.45, Poor: 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewCombiner(tt.weights, tt.tiers); !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("NewCombiner() error = %v, want models.ErrConfiguration", err)
			}
		})
	}

	t.Run("weights within tolerance pass", func(t *testing.T) {
		t.Parallel()
		if _, err := NewCombiner(Weights{Rule: 0.7, Contextual: 0.3}, DefaultTiers()); err != nil {
			t.Errorf("NewCombiner() error = %v, want nil", err)
		}
	})
}

func TestCombineFastUsesRuleScoreExactly(t *testing.T) {
	t.Parallel()

	c := defaultCombiner(t)
	assessment := &models.ContextualAssessment{Probability: 0.9}

	score, ruleOnly := c.Combine(0.7368, assessment, models.ModeFast)
	if score != 0.7368 {
		t.Errorf("Combine(fast) = %v, want the rule score verbatim", score)
	}
	if ruleOnly {
		t.Error("Combine(fast) ruleOnly = true, want false; fast mode is not a degraded path")
	}
}

func TestCombineFullBlendsWeights(t *testing.T) {
	t.Parallel()

	c := defaultCombiner(t)
	score, ruleOnly := c.Combine(0.6, &models.ContextualAssessment{Probability: 0.8}, models.ModeFull)

	want := 0.65*0.6 + 0.35*0.8
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("Combine(full) = %v, want %v", score, want)
	}
	if ruleOnly {
		t.Error("Combine(full) ruleOnly = true, want false when an assessment contributed")
	}
}

func TestCombineFullWithoutAssessmentDegrades(t *testing.T) {
	t.Parallel()

	c := defaultCombiner(t)
	score, ruleOnly := c.Combine(0.6, nil, models.ModeFull)

	if score != 0.6 {
		t.Errorf("Combine(full, nil) = %v, want the rule score", score)
	}
	if !ruleOnly {
		t.Error("Combine(full, nil) ruleOnly = false, want true on the degraded path")
	}
}

func TestCombineFullIsMonotoneInProbability(t *testing.T) {
	t.Parallel()

	c := defaultCombiner(t)
	prev := -1.0
	for p := 0.0; p <= 1.0; p += 0.1 {
		score, _ := c.Combine(0.5, &models.ContextualAssessment{Probability: p}, models.ModeFull)
		if score <= prev {
			t.Fatalf("Combine(full) not monotone: p=%v score=%v prev=%v", p, score, prev)
		}
		if score < 0 || score > 1 {
			t.Fatalf("Combine(full) = %v outside [0,1] at p=%v", score, p)
		}
		prev = score
	}
}

func TestSuitabilityBoundariesAreClosedBelow(t *testing.T) {
	t.Parallel()

	c := defaultCombiner(t)

	tests := []struct {
		score float64
		want  models.Suitability
	}{
		{1.0, models.SuitabilityExcellent},
		{0.80, models.SuitabilityExcellent},
		{0.7999, models.SuitabilityGood},
		{0.65, models.SuitabilityGood},
		{0.6499, models.SuitabilityModerate},
		{0.45, models.SuitabilityModerate},
		{0.4499, models.SuitabilityPoor},
		{0.25, models.SuitabilityPoor},
		{0.2499, models.SuitabilityNotRecommended},
		{0.0, models.SuitabilityNotRecommended},
	}

	for _, tt := range tests {
		if got := c.Suitability(tt.score); got != tt.want {
			t.Errorf("Suitability(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestFinalizeMergesAssessment(t *testing.T) {
	t.Parallel()

	c := defaultCombiner(t)
	cs := models.CategoryScore{
		Score:           0.9,
		PositiveFactors: []string{"no direct competitors inside the radius"},
		Concerns:        []string{"incumbents hold heavy review volume"},
	}
	assessment := &models.ContextualAssessment{
		Probability: 0.6,
		Reasoning:   "steady foot traffic near the transit hub",
		Risks:       []string{"seasonal demand dip"},
		KeyFactors:  []string{"transit hub adjacency"},
	}

	got, ruleOnly := c.Finalize(cs, assessment, models.ModeFull)

	want := 0.65*0.9 + 0.35*0.6
	if math.Abs(got.Score-want) > 1e-9 {
		t.Errorf("Finalize() score = %v, want %v", got.Score, want)
	}
	// 0.795 sits below the 0.80 excellent threshold, which is closed below.
	if got.Suitability != models.SuitabilityGood {
		t.Errorf("Finalize() suitability = %q, want good for %v", got.Suitability, want)
	}
	if ruleOnly {
		t.Error("Finalize() ruleOnly = true, want false")
	}
	if got.Reasoning != assessment.Reasoning {
		t.Errorf("Finalize() reasoning = %q, want the assessment's", got.Reasoning)
	}
	if len(got.Concerns) != 2 || got.Concerns[1] != "seasonal demand dip" {
		t.Errorf("Finalize() concerns = %v, want risks appended", got.Concerns)
	}
	if len(got.PositiveFactors) != 2 || got.PositiveFactors[1] != "transit hub adjacency" {
		t.Errorf("Finalize() positives = %v, want key factors appended", got.PositiveFactors)
	}
}

func TestFinalizeFastIgnoresAssessment(t *testing.T) {
	t.Parallel()

	c := defaultCombiner(t)
	cs := models.CategoryScore{Score: 0.5}
	assessment := &models.ContextualAssessment{Probability: 1.0, Reasoning: "ignored"}

	got, ruleOnly := c.Finalize(cs, assessment, models.ModeFast)
	if got.Score != 0.5 || got.Reasoning != "" || ruleOnly {
		t.Errorf("Finalize(fast) = %+v ruleOnly=%v, want untouched rule result", got, ruleOnly)
	}
	if got.Suitability != models.SuitabilityModerate {
		t.Errorf("Finalize(fast) suitability = %q, want moderate", got.Suitability)
	}
}
