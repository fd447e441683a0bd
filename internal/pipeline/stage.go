// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package pipeline

import (
	"time"

	"github.com/tomtom215/situs/internal/metrics"
)

// Stage labels one step of the per-request state machine. Stages always
// advance in declaration order; ContextualPending is skipped in fast mode.
// Done is terminal - no retries happen inside a single request.
type Stage string

// Pipeline stages in execution order.
const (
	StageReceived          Stage = "received"
	StageAggregating       Stage = "aggregating"
	StageNormalizing       Stage = "normalizing"
	StageRuleScoring       Stage = "rule_scoring"
	StageContextualPending Stage = "contextual_pending"
	StageCombining         Stage = "combining"
	StageExplaining        Stage = "explaining"
	StageDone              Stage = "done"
)

// ProgressNotifier receives request lifecycle events. The websocket hub
// implements this to stream sweep progress; NopNotifier serves everything
// else. Implementations must not block: the pipeline calls these inline.
type ProgressNotifier interface {
	RequestReceived(requestID, kind string)
	StageChanged(requestID string, stage Stage)
	GridCompleted(requestID string, done, total int)
	RequestDone(requestID string, durationMS int64)
}

// NopNotifier discards all progress events.
type NopNotifier struct{}

func (NopNotifier) RequestReceived(string, string) {}
func (NopNotifier) StageChanged(string, Stage)     {}
func (NopNotifier) GridCompleted(string, int, int) {}
func (NopNotifier) RequestDone(string, int64)      {}

var _ ProgressNotifier = NopNotifier{}

// stageTimer records wall-clock duration per stage for one request. Not
// safe for concurrent use; each request owns its own timer.
type stageTimer struct {
	started   time.Time
	current   Stage
	stageFrom time.Time
	timings   map[string]int64
	notifier  ProgressNotifier
	requestID string
}

func newStageTimer(requestID string, notifier ProgressNotifier) *stageTimer {
	now := time.Now()
	return &stageTimer{
		started:   now,
		current:   StageReceived,
		stageFrom: now,
		timings:   make(map[string]int64, 8),
		notifier:  notifier,
		requestID: requestID,
	}
}

// enter closes the current stage and opens the next one.
func (t *stageTimer) enter(stage Stage) {
	t.close()
	t.current = stage
	t.stageFrom = time.Now()
	t.notifier.StageChanged(t.requestID, stage)
}

// close books the elapsed time of the current stage.
func (t *stageTimer) close() {
	elapsed := time.Since(t.stageFrom)
	t.timings[string(t.current)] += elapsed.Milliseconds()
	metrics.RecordPipelineStage(string(t.current), elapsed)
}

// done finishes the request and returns a copy of the timings map, safe to
// attach to multiple recommendations.
func (t *stageTimer) done() map[string]int64 {
	t.enter(StageDone)
	t.close()
	t.notifier.RequestDone(t.requestID, time.Since(t.started).Milliseconds())

	out := make(map[string]int64, len(t.timings))
	for k, v := range t.timings {
		out[k] = v
	}
	return out
}

// total returns the wall-clock time since the request started.
func (t *stageTimer) total() time.Duration {
	return time.Since(t.started)
}
