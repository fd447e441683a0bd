// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package models

import "time"

// Processing modes for an evaluation.
//
//   - ModeFast: deterministic rule score only; the contextual evaluator is
//     never called.
//   - ModeFull: rule score blended with the contextual probability; degrades
//     to rule-only (RuleOnly=true) when the evaluator fails or times out.
const (
	ModeFast = "fast"
	ModeFull = "full"
)

// ValidMode reports whether mode is one of the recognized processing modes.
func ValidMode(mode string) bool { return mode == ModeFast || mode == ModeFull }

// PostEvidence is one supporting social post, text pre-truncated for display.
type PostEvidence struct {
	ID         string     `json:"id"`
	Channel    string     `json:"channel"`
	Type       SignalType `json:"type"`
	Text       string     `json:"text"`
	Engagement float64    `json:"engagement"`
	PostedAt   time.Time  `json:"posted_at"`
}

// CompetitorEvidence is one nearby competing business annotated with its
// great-circle distance from the evaluated location. Rating is nil when the
// source had none.
type CompetitorEvidence struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount int      `json:"review_count"`
	DistanceKm  float64  `json:"distance_km"`
}

// Evidence bundles the supporting material attached to a recommendation.
type Evidence struct {
	TopPosts    []PostEvidence       `json:"top_posts"`
	Competitors []CompetitorEvidence `json:"competitors"`
}

// Explanation is the response shape of the explain operation.
type Explanation struct {
	GridID      string               `json:"grid_id"`
	Category    string               `json:"category"`
	TopPosts    []PostEvidence       `json:"top_posts"`
	Competitors []CompetitorEvidence `json:"competitors"`
	Rationale   string               `json:"rationale"`
}

// Recommendation is the engine's final output for one grid cell or one point.
//
// Exactly one of GridID and Point identifies the location: grid sweeps set
// GridID (+Region), point queries set Point. Field names are a stable
// contract with API consumers.
//
// Confidence starts at 1.0 and is lowered when the result was produced from
// partial data (source exhaustion) or a degraded contextual call; RuleOnly
// marks a full-mode evaluation that fell back to deterministic scoring.
// StageTimingsMS records wall-clock milliseconds per pipeline stage.
type Recommendation struct {
	GridID string      `json:"grid_id,omitempty"`
	Region string      `json:"region,omitempty"`
	Point  *Coordinate `json:"point,omitempty"`

	CategoryScores map[string]CategoryScore `json:"category_scores"`
	BestCategory   string                   `json:"best_category"`
	Rationale      string                   `json:"rationale"`
	Evidence       Evidence                 `json:"evidence"`

	Mode           string           `json:"mode"`
	RuleOnly       bool             `json:"rule_only"`
	Confidence     float64          `json:"confidence"`
	StageTimingsMS map[string]int64 `json:"stage_timings_ms"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// Score returns the final score of the recommendation's best category, or 0
// when no category was scored.
func (r Recommendation) Score() float64 {
	if cs, ok := r.CategoryScores[r.BestCategory]; ok {
		return cs.Score
	}
	return 0
}
