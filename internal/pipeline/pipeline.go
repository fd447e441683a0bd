// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/situs/internal/contextual"
	"github.com/tomtom215/situs/internal/explain"
	"github.com/tomtom215/situs/internal/grid"
	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
	"github.com/tomtom215/situs/internal/scoring"
	"github.com/tomtom215/situs/internal/sources"
)

// Confidence levels attached to recommendations. Full data scores 1.0; a
// source that failed after its collaborator-side retries halves it; a
// full-mode evaluation degraded to rule-only multiplies by 0.75.
const (
	confidenceFull        = 1.0
	confidencePartialData = 0.5
	ruleOnlyFactor        = 0.75
)

// Config bounds one pipeline's behavior. Zero values take defaults in New.
type Config struct {
	// WindowDays restricts social signals to the last N days. Zero
	// disables time filtering.
	WindowDays int

	// Workers bounds the sweep worker pool. Zero means runtime.NumCPU().
	Workers int

	// TopPosts and TopCompetitors bound the evidence lists.
	TopPosts       int
	TopCompetitors int

	// TraceEnabled keeps per-rule traces on returned scores.
	TraceEnabled bool

	// Complementary maps a target category to the categories counted as
	// supporting businesses in point evaluations.
	Complementary map[string][]string

	// ProgressEvery emits a grid-completed progress event every K grids.
	// Zero disables per-grid progress.
	ProgressEvery int
}

// Pipeline orchestrates grid sweeps, point queries, and explanations over
// an immutable grid index and rule engine. Safe for concurrent use: every
// request owns its own working state.
type Pipeline struct {
	index    *grid.Index
	agg      *scoring.Aggregator
	engine   *scoring.Engine
	combiner *scoring.Combiner
	bevGen   *scoring.Generator
	builder  *explain.Builder

	business sources.BusinessSource
	social   sources.SocialSource

	// evaluator is nil when contextual assessment is disabled; full-mode
	// requests then score rule-only.
	evaluator contextual.Evaluator

	notifier ProgressNotifier
	cfg      Config
}

// New wires a pipeline. index, engine, combiner, business, and social are
// required; evaluator may be nil (full mode degrades to rule-only) and
// notifier may be nil (progress events are dropped).
func New(
	index *grid.Index,
	agg *scoring.Aggregator,
	engine *scoring.Engine,
	combiner *scoring.Combiner,
	bevGen *scoring.Generator,
	business sources.BusinessSource,
	social sources.SocialSource,
	evaluator contextual.Evaluator,
	notifier ProgressNotifier,
	cfg Config,
) (*Pipeline, error) {
	if index == nil || agg == nil || engine == nil || combiner == nil || bevGen == nil {
		return nil, fmt.Errorf("%w: pipeline requires index, aggregator, engine, combiner, and bev generator", models.ErrConfiguration)
	}
	if business == nil || social == nil {
		return nil, fmt.Errorf("%w: pipeline requires business and social sources", models.ErrConfiguration)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.TopPosts <= 0 {
		cfg.TopPosts = explain.DefaultTopPosts
	}
	if cfg.TopCompetitors <= 0 {
		cfg.TopCompetitors = explain.DefaultTopCompetitors
	}

	return &Pipeline{
		index:     index,
		agg:       agg,
		engine:    engine,
		combiner:  combiner,
		bevGen:    bevGen,
		builder:   mustBuilder(cfg.TopPosts, cfg.TopCompetitors),
		business:  business,
		social:    social,
		evaluator: evaluator,
		notifier:  notifier,
		cfg:       cfg,
	}, nil
}

func mustBuilder(topPosts, topCompetitors int) *explain.Builder {
	b, err := explain.NewBuilder(topPosts, topCompetitors)
	if err != nil {
		// Both inputs were defaulted to positive values above.
		panic(err)
	}
	return b
}

// gridData is the per-cell slice of the fetched raw data, used by the
// explaining stage without a second source round trip.
type gridData struct {
	businesses map[string][]models.BusinessRecord
	signals    map[string][]models.SocialSignal
	degraded   bool
}

// Rank sweeps every cell of the region for one category and returns the
// limit highest-scoring cells in descending final-score order, ties broken
// by confidence then by grid ID. Unknown regions and categories are
// ErrNotFound; everything else degrades rather than fails.
func (p *Pipeline) Rank(ctx context.Context, region, category string, limit int) ([]models.Recommendation, error) {
	cells, err := p.index.RegionCells(region)
	if err != nil {
		return nil, err
	}
	if !p.engine.HasTable(scoring.KindGrid, category) {
		return nil, fmt.Errorf("%w: no grid rule table for category %q", models.ErrNotFound, category)
	}
	if limit <= 0 || limit > len(cells) {
		limit = len(cells)
	}

	requestID := uuid.NewString()
	timer := newStageTimer(requestID, p.notifier)
	p.notifier.RequestReceived(requestID, "rank")

	logging.Info().
		Str("request_id", requestID).
		Str("region", region).
		Str("category", category).
		Int("cells", len(cells)).
		Msg("Grid sweep started")

	// Aggregating: one fetch per source over the region bounds, then
	// point-to-grid tagging and per-cell counting.
	timer.enter(StageAggregating)
	data, gridMetrics, err := p.aggregateRegion(ctx, region, category, cells)
	if err != nil {
		return nil, err
	}

	// Normalizing: rescale raw counts across the whole run.
	timer.enter(StageNormalizing)
	maxima := scoring.ComputeMax(gridMetrics)
	scoring.NormalizeAll(gridMetrics, maxima)

	// RuleScoring: independent per-cell evaluations on a bounded pool.
	timer.enter(StageRuleScoring)
	scored, err := p.scoreCells(ctx, requestID, category, cells, gridMetrics)
	if err != nil {
		return nil, err
	}

	// Combining: sweep scores are rule-only; the combiner maps them to
	// tiers. Then order deterministically and cut to limit.
	timer.enter(StageCombining)
	confidence := confidenceFull
	if data.degraded {
		confidence = confidencePartialData
	}
	for i := range scored {
		scored[i].score, _ = p.combiner.Finalize(scored[i].score, nil, models.ModeFast)
	}
	sortScored(scored)
	if limit > len(scored) {
		limit = len(scored)
	}
	top := scored[:limit]

	// Explaining: evidence and rationale for the returned cells only.
	timer.enter(StageExplaining)
	now := time.Now().UTC()
	recs := make([]models.Recommendation, 0, len(top))
	for _, s := range top {
		m := gridMetrics[s.cellID]
		rec := models.Recommendation{
			GridID:         s.cellID,
			Region:         region,
			CategoryScores: map[string]models.CategoryScore{category: p.maybeStripTrace(s.score)},
			BestCategory:   category,
			Rationale:      p.builder.Rationale(s.score.Score, m.TotalSignals(), m.BusinessCount),
			Evidence:       p.builder.Evidence(s.center, data.signals[s.cellID], data.businesses[s.cellID]),
			Mode:           models.ModeFast,
			Confidence:     confidence,
			GeneratedAt:    now,
		}
		recs = append(recs, rec)
	}

	timings := timer.done()
	for i := range recs {
		recs[i].StageTimingsMS = timings
	}

	metrics.RecordSweep(models.ModeFast, timer.total(), len(cells))
	metrics.RecordRecommendationsServed(models.ModeFast, len(recs))

	logging.Info().
		Str("request_id", requestID).
		Int("returned", len(recs)).
		Bool("degraded", data.degraded).
		Dur("elapsed", timer.total()).
		Msg("Grid sweep complete")

	return recs, nil
}

// aggregateRegion fetches the raw data for a region, tags each record with
// its cell, and folds per-cell metrics. Source failures degrade to empty
// data; only cancellation aborts.
func (p *Pipeline) aggregateRegion(ctx context.Context, region, category string, cells []models.GridCell) (*gridData, map[string]*models.GridMetrics, error) {
	bounds, err := p.index.RegionBounds(region)
	if err != nil {
		return nil, nil, err
	}

	data := &gridData{
		businesses: make(map[string][]models.BusinessRecord),
		signals:    make(map[string][]models.SocialSignal),
	}

	businesses, err := p.business.FetchByBounds(ctx, category, bounds)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		logging.Warn().Err(err).Str("region", region).Msg("Business source failed, sweeping with partial data")
		data.degraded = true
		businesses = nil
	}
	signals, err := p.social.Fetch(ctx, category, bounds, p.cfg.WindowDays)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		logging.Warn().Err(err).Str("region", region).Msg("Social source failed, sweeping with partial data")
		data.degraded = true
		signals = nil
	}

	// Point-to-grid assignment. Records already tagged upstream keep
	// their tag; everything else is located through the index.
	for i := range businesses {
		b := &businesses[i]
		if b.GridID == "" {
			if cell, ok := p.index.Assign(b.Location.Lat, b.Location.Lon); ok {
				b.GridID = cell.ID
			}
		}
		if b.GridID != "" {
			data.businesses[b.GridID] = append(data.businesses[b.GridID], *b)
		}
	}
	for i := range signals {
		s := &signals[i]
		if s.GridID == "" && s.Location != nil {
			if cell, ok := p.index.Assign(s.Location.Lat, s.Location.Lon); ok {
				s.GridID = cell.ID
			}
		}
		if s.GridID != "" {
			data.signals[s.GridID] = append(data.signals[s.GridID], *s)
		}
	}

	gridMetrics, stats := p.agg.Aggregate(category, cells, businesses, signals, time.Now().UTC())
	logging.Debug().
		Str("region", region).
		Int("businesses", stats.Businesses).
		Int("signals", stats.Signals).
		Int("dropped_unknown_grid", stats.DroppedUnknownGrid).
		Int("dropped_out_of_window", stats.DroppedOutOfWindow).
		Msg("Aggregation complete")

	return data, gridMetrics, nil
}

// scoredCell pairs one cell with its rule-stage score.
type scoredCell struct {
	cellID string
	center models.Coordinate
	score  models.CategoryScore
}

// scoreCells evaluates every cell on a bounded worker pool. Workers write
// to their own index slots, so the result order is the cell order and never
// depends on scheduling. Cancellation drops all partial results.
func (p *Pipeline) scoreCells(ctx context.Context, requestID, category string, cells []models.GridCell, gridMetrics map[string]*models.GridMetrics) ([]scoredCell, error) {
	results := make([]scoredCell, len(cells))
	errs := make([]error, len(cells))

	workers := p.cfg.Workers
	if workers > len(cells) {
		workers = len(cells)
	}
	chunkSize := (len(cells) + workers - 1) / workers

	var completed sync.WaitGroup
	var done int64
	var doneMu sync.Mutex

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(cells) {
			end = len(cells)
		}
		if start >= end {
			break
		}

		completed.Add(1)
		go func(from, to int) {
			defer completed.Done()
			for i := from; i < to; i++ {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				cell := cells[i]
				m := gridMetrics[cell.ID]
				cs, err := p.engine.Evaluate(scoring.KindGrid, category, scoring.MetricsFeatures{Metrics: *m})
				if err != nil {
					errs[i] = err
					continue
				}
				metrics.RecordRuleEvaluation(string(scoring.KindGrid))
				results[i] = scoredCell{cellID: cell.ID, center: cell.Center, score: cs}

				if p.cfg.ProgressEvery > 0 {
					doneMu.Lock()
					done++
					if done%int64(p.cfg.ProgressEvery) == 0 {
						p.notifier.GridCompleted(requestID, int(done), len(cells))
					}
					doneMu.Unlock()
				}
			}
		}(start, end)
	}
	completed.Wait()

	if err := ctx.Err(); err != nil {
		// Cancellation is all-or-nothing: partial results are discarded.
		return nil, err
	}

	// A cell that could not be scored degrades out of the ranking; the
	// sweep itself never fails over a single cell.
	out := results[:0]
	for i := range results {
		if errs[i] != nil {
			logging.Warn().Err(errs[i]).Str("grid_id", cells[i].ID).Msg("Cell scoring failed, dropping from sweep")
			continue
		}
		out = append(out, results[i])
	}
	return out, nil
}

// sortScored orders by final score descending, ties broken by grid ID
// ascending so identical inputs always rank identically.
func sortScored(scored []scoredCell) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score.Score != scored[j].score.Score {
			return scored[i].score.Score > scored[j].score.Score
		}
		return scored[i].cellID < scored[j].cellID
	})
}

// maybeStripTrace drops the rule trace unless tracing is enabled.
func (p *Pipeline) maybeStripTrace(cs models.CategoryScore) models.CategoryScore {
	if !p.cfg.TraceEnabled {
		cs.RuleTrace = nil
	}
	return cs
}
