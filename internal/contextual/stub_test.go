// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package contextual

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/situs/internal/models"
)

const probTolerance = 1e-9

func TestStubEvaluator_Deterministic(t *testing.T) {
	stub := &StubEvaluator{}
	bev := testBEV()

	first, err := stub.Assess(context.Background(), "gym", bev)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	second, err := stub.Assess(context.Background(), "gym", bev)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Assessments differ for identical input:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestStubEvaluator_EmptyEnvironment(t *testing.T) {
	stub := &StubEvaluator{}
	bev := models.BusinessEnvironmentVector{
		Center:  models.Coordinate{Lat: 24.8607, Lon: 67.0011},
		RadiusM: 1000,
	}

	assessment, err := stub.Assess(context.Background(), "gym", bev)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if math.Abs(assessment.Probability-0.5) > probTolerance {
		t.Errorf("Expected baseline probability 0.5 for empty environment, got %v", assessment.Probability)
	}
	if len(assessment.Risks) != 1 || assessment.Risks[0] != "no nearby commercial activity observed" {
		t.Errorf("Expected no-activity risk, got %v", assessment.Risks)
	}
	if len(assessment.KeyFactors) != 0 {
		t.Errorf("Expected no key factors, got %v", assessment.KeyFactors)
	}
}

func TestStubEvaluator_CompetitionLowersProbability(t *testing.T) {
	stub := &StubEvaluator{}

	tests := []struct {
		name        string
		competitors int
		expected    float64
	}{
		{"no competition", 0, 0.5},
		{"two competitors", 2, 0.38},
		{"five competitors", 5, 0.20},
		{"penalty capped at five", 9, 0.20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bev := models.BusinessEnvironmentVector{
				DensityCounts: map[string]int{"gym": tt.competitors},
			}
			assessment, err := stub.Assess(context.Background(), "gym", bev)
			if err != nil {
				t.Fatalf("Assess failed: %v", err)
			}
			if math.Abs(assessment.Probability-tt.expected) > probTolerance {
				t.Errorf("Expected probability %v with %d competitors, got %v",
					tt.expected, tt.competitors, assessment.Probability)
			}
		})
	}
}

func TestStubEvaluator_CompetitionRisk(t *testing.T) {
	stub := &StubEvaluator{}
	bev := models.BusinessEnvironmentVector{
		DensityCounts: map[string]int{"gym": 4},
	}

	assessment, err := stub.Assess(context.Background(), "gym", bev)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if len(assessment.Risks) != 1 {
		t.Fatalf("Expected one risk, got %v", assessment.Risks)
	}
	if assessment.Risks[0] != "4 established gym competitors within the search radius" {
		t.Errorf("Unexpected risk text: %q", assessment.Risks[0])
	}
}

func TestStubEvaluator_ActivityRaisesProbability(t *testing.T) {
	stub := &StubEvaluator{}
	bev := models.BusinessEnvironmentVector{
		DensityCounts: map[string]int{"cafe": 4}, // no gyms, some activity
	}

	assessment, err := stub.Assess(context.Background(), "gym", bev)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if math.Abs(assessment.Probability-0.58) > probTolerance {
		t.Errorf("Expected probability 0.58, got %v", assessment.Probability)
	}
	if len(assessment.KeyFactors) != 1 || assessment.KeyFactors[0] != "active surrounding market" {
		t.Errorf("Expected active market key factor, got %v", assessment.KeyFactors)
	}
}

func TestStubEvaluator_ProximityFlags(t *testing.T) {
	stub := &StubEvaluator{}
	bev := models.BusinessEnvironmentVector{
		ProximityFlags: map[string]bool{
			"university": true,
			"mall":       true,
			"hospital":   false,
		},
	}

	assessment, err := stub.Assess(context.Background(), "gym", bev)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	// Two set flags: 0.5 + 2*0.05
	if math.Abs(assessment.Probability-0.60) > probTolerance {
		t.Errorf("Expected probability 0.60, got %v", assessment.Probability)
	}

	// Key factors come out sorted regardless of map order
	expected := []string{"near mall", "near university"}
	if !reflect.DeepEqual(assessment.KeyFactors, expected) {
		t.Errorf("Expected key factors %v, got %v", expected, assessment.KeyFactors)
	}
}

func TestStubEvaluator_HighRatingBonus(t *testing.T) {
	stub := &StubEvaluator{}
	rating := 4.5
	bev := models.BusinessEnvironmentVector{
		AvgRating:  &rating,
		RatedCount: 3,
	}

	assessment, err := stub.Assess(context.Background(), "gym", bev)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if math.Abs(assessment.Probability-0.55) > probTolerance {
		t.Errorf("Expected probability 0.55 with high ratings, got %v", assessment.Probability)
	}
}

func TestStubEvaluator_ProbabilityBounds(t *testing.T) {
	stub := &StubEvaluator{}

	// Saturate every bonus: activity, flags, rating
	rating := 5.0
	flagged := models.BusinessEnvironmentVector{
		DensityCounts: map[string]int{"cafe": 50, "restaurant": 50},
		ProximityFlags: map[string]bool{
			"a": true, "b": true, "c": true, "d": true, "e": true,
			"f": true, "g": true, "h": true, "i": true, "j": true,
		},
		AvgRating:  &rating,
		RatedCount: 10,
	}
	assessment, err := stub.Assess(context.Background(), "gym", flagged)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if assessment.Probability > 0.95 {
		t.Errorf("Probability exceeded upper bound: %v", assessment.Probability)
	}

	// Saturate the penalty
	crowded := models.BusinessEnvironmentVector{
		DensityCounts: map[string]int{"gym": 100},
	}
	assessment, err = stub.Assess(context.Background(), "gym", crowded)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if assessment.Probability < 0.05 {
		t.Errorf("Probability below lower bound: %v", assessment.Probability)
	}
}

func TestStubEvaluator_FixedProbability(t *testing.T) {
	tests := []struct {
		name     string
		fixed    float64
		expected float64
	}{
		{"in range", 0.8, 0.8},
		{"clamped above", 1.5, 1.0},
		{"clamped below", -0.3, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &StubEvaluator{FixedProbability: &tt.fixed}
			assessment, err := stub.Assess(context.Background(), "gym", testBEV())
			if err != nil {
				t.Fatalf("Assess failed: %v", err)
			}
			if assessment.Probability != tt.expected {
				t.Errorf("Expected probability %v, got %v", tt.expected, assessment.Probability)
			}
		})
	}
}

func TestStubEvaluator_ForcedError(t *testing.T) {
	forced := errors.New("evaluator offline")
	stub := &StubEvaluator{Err: forced}

	_, err := stub.Assess(context.Background(), "gym", testBEV())
	if !errors.Is(err, forced) {
		t.Errorf("Expected forced error, got %v", err)
	}
}

func TestStubEvaluator_CanceledContext(t *testing.T) {
	stub := &StubEvaluator{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stub.Assess(ctx, "gym", testBEV())
	if err == nil {
		t.Fatal("Expected error for canceled context, got nil")
	}
	if !errors.Is(err, models.ErrContextualEvaluator) {
		t.Errorf("Expected ErrContextualEvaluator, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
}

func TestStubEvaluator_SatisfiesEvaluator(t *testing.T) {
	var _ Evaluator = (*StubEvaluator)(nil)
	var _ Evaluator = (*HTTPEvaluator)(nil)
}
