// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package contextual

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/situs/internal/models"
)

// StubEvaluator is a deterministic, offline Evaluator. It derives a
// probability from the BEV with a fixed heuristic: competition lowers it,
// surrounding commercial activity and proximity flags raise it. Identical
// inputs always produce identical assessments.
//
// Set FixedProbability to pin the returned probability, or Err to force a
// failure. Both are read-only after construction.
type StubEvaluator struct {
	FixedProbability *float64
	Err              error
}

// Assess produces a heuristic assessment without any network access.
func (s *StubEvaluator) Assess(ctx context.Context, category string, bev models.BusinessEnvironmentVector) (*models.ContextualAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrContextualEvaluator, err)
	}
	if s.Err != nil {
		return nil, s.Err
	}

	if s.FixedProbability != nil {
		p := clamp01(*s.FixedProbability)
		return &models.ContextualAssessment{
			Probability: p,
			Reasoning:   fmt.Sprintf("fixed stub assessment for %s", category),
		}, nil
	}

	competitors := bev.Density(category)
	activity := 0
	for _, n := range bev.DensityCounts {
		activity += n
	}
	activity -= competitors

	p := 0.5
	p -= 0.06 * float64(min(competitors, 5))
	p += 0.02 * float64(min(activity, 10))

	// Sorted so risks/key factors come out in a stable order
	flags := make([]string, 0, len(bev.ProximityFlags))
	for name, near := range bev.ProximityFlags {
		if near {
			flags = append(flags, name)
		}
	}
	sort.Strings(flags)
	p += 0.05 * float64(len(flags))

	if bev.AvgRating != nil && *bev.AvgRating >= 4.0 && bev.RatedCount > 0 {
		p += 0.05
	}

	if p < 0.05 {
		p = 0.05
	}
	if p > 0.95 {
		p = 0.95
	}

	var risks []string
	if competitors >= 3 {
		risks = append(risks, fmt.Sprintf("%d established %s competitors within the search radius", competitors, category))
	}
	if activity == 0 && competitors == 0 {
		risks = append(risks, "no nearby commercial activity observed")
	}

	var keyFactors []string
	for _, name := range flags {
		keyFactors = append(keyFactors, "near "+name)
	}
	if activity > 0 {
		keyFactors = append(keyFactors, "active surrounding market")
	}

	return &models.ContextualAssessment{
		Probability: p,
		Reasoning: fmt.Sprintf("heuristic assessment for %s: %d competitors, %d other businesses, %d favorable landmarks",
			category, competitors, activity, len(flags)),
		Risks:      risks,
		KeyFactors: keyFactors,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
