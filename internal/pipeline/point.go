// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/situs/internal/contextual"
	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
	"github.com/tomtom215/situs/internal/scoring"
)

// Evaluate scores an arbitrary point across every point-rule category,
// independent of any pre-built grid. Full mode adds one contextual call for
// the best rule-stage category and degrades to rule-only on its failure;
// fast mode never touches the evaluator.
func (p *Pipeline) Evaluate(ctx context.Context, lat, lon, radiusM float64, mode string) (models.Recommendation, error) {
	if !models.ValidMode(mode) {
		return models.Recommendation{}, fmt.Errorf("%w: unknown mode %q", models.ErrConfiguration, mode)
	}
	categories := p.engine.Categories(scoring.KindPoint)
	if len(categories) == 0 {
		return models.Recommendation{}, fmt.Errorf("%w: no point rule tables configured", models.ErrNotFound)
	}

	requestID := uuid.NewString()
	timer := newStageTimer(requestID, p.notifier)
	p.notifier.RequestReceived(requestID, "evaluate")

	center := models.Coordinate{Lat: lat, Lon: lon}
	degraded := false

	// Aggregating: one radius fetch feeds both the BEV and the evidence.
	timer.enter(StageAggregating)
	records, err := p.bevGen.Fetch(ctx, center, radiusM)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Recommendation{}, ctxErr
		}
		logging.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).
			Msg("Business source failed, evaluating with partial data")
		degraded = true
		records = nil
	}
	bev := p.bevGen.Derive(center, radiusM, records)

	// RuleScoring: every point category independently; the normalizing
	// stage is a no-op for point features but still appears in timings.
	timer.enter(StageNormalizing)
	timer.enter(StageRuleScoring)
	scores := make(map[string]models.CategoryScore, len(categories))
	bestRule := ""
	for _, cat := range categories {
		src := scoring.BEVFeatures{BEV: bev, Category: cat, Complementary: p.cfg.Complementary[cat]}
		cs, err := p.engine.Evaluate(scoring.KindPoint, cat, src)
		if err != nil {
			logging.Warn().Err(err).Str("category", cat).Msg("Point category scoring failed, skipping category")
			continue
		}
		metrics.RecordRuleEvaluation(string(scoring.KindPoint))
		scores[cat] = cs
		if bestRule == "" || betterScore(cs, scores[bestRule], cat, bestRule) {
			bestRule = cat
		}
	}
	if len(scores) == 0 {
		return models.Recommendation{}, fmt.Errorf("%w: no point category could be scored", models.ErrNotFound)
	}

	// ContextualPending: full mode only, one call for the best rule-stage
	// category. Any failure transitions to Combining on the degraded path.
	var assessment *models.ContextualAssessment
	ruleOnly := false
	if mode == models.ModeFull {
		timer.enter(StageContextualPending)
		if p.evaluator == nil {
			ruleOnly = true
			metrics.RecordContextualFallback("disabled")
		} else {
			assessment, err = p.evaluator.Assess(ctx, bestRule, bev)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return models.Recommendation{}, ctxErr
				}
				reason := contextual.FallbackReason(err)
				logging.Warn().Err(err).Str("category", bestRule).Str("reason", reason).
					Msg("Contextual assessment failed, degrading to rule-only")
				metrics.RecordContextualFallback(reason)
				ruleOnly = true
				assessment = nil
			}
		}
	}

	// Combining: the contextual assessment applies to its category only;
	// the rest stay rule-only by construction.
	timer.enter(StageCombining)
	best := ""
	for cat, cs := range scores {
		var a *models.ContextualAssessment
		if cat == bestRule {
			a = assessment
		}
		final, _ := p.combiner.Finalize(cs, a, mode)
		scores[cat] = p.maybeStripTrace(final)
		if best == "" || betterScore(final, scores[best], cat, best) {
			best = cat
		}
	}

	// Explaining: competitors come from the records already fetched;
	// supporting posts need one social fetch over the query circle.
	timer.enter(StageExplaining)
	signals, err := p.social.Fetch(ctx, best, circleBounds(center, radiusM), p.cfg.WindowDays)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Recommendation{}, ctxErr
		}
		logging.Warn().Err(err).Str("category", best).Msg("Social source failed, returning evidence without posts")
		degraded = true
		signals = nil
	}

	confidence := confidenceFull
	if degraded {
		confidence = confidencePartialData
	}
	if ruleOnly {
		confidence *= ruleOnlyFactor
	}

	rec := models.Recommendation{
		Point:          &center,
		CategoryScores: scores,
		BestCategory:   best,
		Rationale:      p.builder.Rationale(scores[best].Score, len(signals), len(records)),
		Evidence:       p.builder.Evidence(center, signals, records),
		Mode:           mode,
		RuleOnly:       ruleOnly,
		Confidence:     confidence,
		StageTimingsMS: timer.done(),
		GeneratedAt:    time.Now().UTC(),
	}

	metrics.RecordPointEvaluation(mode)
	metrics.RecordRecommendationsServed(mode, 1)

	logging.Info().
		Str("request_id", requestID).
		Str("best_category", best).
		Str("mode", mode).
		Bool("rule_only", ruleOnly).
		Float64("confidence", confidence).
		Dur("elapsed", timer.total()).
		Msg("Point evaluation complete")

	return rec, nil
}

// Explain re-derives the evidence behind one grid cell's score for a
// category: the cell's strongest posts, its closest competitors, and a
// one-line rationale. Unknown grid IDs and categories are ErrNotFound.
func (p *Pipeline) Explain(ctx context.Context, gridID, category string) (models.Explanation, error) {
	cell, ok := p.index.CellByID(gridID)
	if !ok {
		return models.Explanation{}, fmt.Errorf("%w: unknown grid %q", models.ErrNotFound, gridID)
	}
	if !p.engine.HasTable(scoring.KindGrid, category) {
		return models.Explanation{}, fmt.Errorf("%w: no grid rule table for category %q", models.ErrNotFound, category)
	}
	cells, err := p.index.RegionCells(cell.Region)
	if err != nil {
		return models.Explanation{}, err
	}

	// Normalized fields are region-relative, so the whole region has to be
	// aggregated to reproduce the score the sweep reported.
	data, gridMetrics, err := p.aggregateRegion(ctx, cell.Region, category, cells)
	if err != nil {
		return models.Explanation{}, err
	}
	maxima := scoring.ComputeMax(gridMetrics)
	scoring.NormalizeAll(gridMetrics, maxima)

	cs, err := p.engine.Evaluate(scoring.KindGrid, category, scoring.MetricsFeatures{Metrics: *gridMetrics[gridID]})
	if err != nil {
		return models.Explanation{}, err
	}
	cs, _ = p.combiner.Finalize(cs, nil, models.ModeFast)

	exp := p.builder.Explanation(gridID, category, cs.Score, cell.Center,
		data.signals[gridID], data.businesses[gridID])
	return exp, nil
}

// betterScore ranks (score desc, category name asc) for best-category picks.
func betterScore(a, b models.CategoryScore, aName, bName string) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return aName < bName
}

// circleBounds is the axis-aligned box enclosing the query circle, used to
// prefilter signals by rectangle before evidence selection.
func circleBounds(center models.Coordinate, radiusM float64) models.BoundingBox {
	const kmPerDegLat = 110.574
	radiusKm := radiusM / 1000
	latDelta := radiusKm / kmPerDegLat
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonDelta := radiusKm / (111.320 * cosLat)
	return models.BoundingBox{
		North: center.Lat + latDelta,
		South: center.Lat - latDelta,
		East:  center.Lon + lonDelta,
		West:  center.Lon - lonDelta,
	}
}
