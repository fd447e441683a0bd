// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/situs/internal/models"
)

// fakeRanker implements Ranker with pluggable behavior per test.
type fakeRanker struct {
	rankFn     func(ctx context.Context, region, category string, limit int) ([]models.Recommendation, error)
	evaluateFn func(ctx context.Context, lat, lon, radiusM float64, mode string) (models.Recommendation, error)
	explainFn  func(ctx context.Context, gridID, category string) (models.Explanation, error)
}

func (f *fakeRanker) Rank(ctx context.Context, region, category string, limit int) ([]models.Recommendation, error) {
	if f.rankFn == nil {
		return nil, nil
	}
	return f.rankFn(ctx, region, category, limit)
}

func (f *fakeRanker) Evaluate(ctx context.Context, lat, lon, radiusM float64, mode string) (models.Recommendation, error) {
	if f.evaluateFn == nil {
		return models.Recommendation{}, nil
	}
	return f.evaluateFn(ctx, lat, lon, radiusM, mode)
}

func (f *fakeRanker) Explain(ctx context.Context, gridID, category string) (models.Explanation, error) {
	if f.explainFn == nil {
		return models.Explanation{}, nil
	}
	return f.explainFn(ctx, gridID, category)
}

func newTestHandler(t *testing.T, ranker Ranker) *Handler {
	t.Helper()
	return NewHandler(ranker, nil, nil, nil, nil, HandlerConfig{})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func TestRankSuccess(t *testing.T) {
	t.Parallel()

	var gotRegion, gotCategory string
	var gotLimit int
	ranker := &fakeRanker{
		rankFn: func(_ context.Context, region, category string, limit int) ([]models.Recommendation, error) {
			gotRegion, gotCategory, gotLimit = region, category, limit
			return []models.Recommendation{
				{GridID: "downtown-3-7", Region: region, BestCategory: category},
				{GridID: "downtown-3-8", Region: region, BestCategory: category},
			}, nil
		},
	}
	h := newTestHandler(t, ranker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rank?region=downtown&category=gym", nil)
	w := httptest.NewRecorder()
	h.Rank(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotRegion != "downtown" || gotCategory != "gym" {
		t.Errorf("Ranker called with region=%q category=%q", gotRegion, gotCategory)
	}
	if gotLimit != 10 {
		t.Errorf("Expected default limit 10, got %d", gotLimit)
	}

	resp := decodeEnvelope(t, w)
	if resp.Status != "success" {
		t.Errorf("Expected status success, got %q", resp.Status)
	}
	if resp.Error != nil {
		t.Errorf("Unexpected error in envelope: %+v", resp.Error)
	}
	items, ok := resp.Data.([]interface{})
	if !ok {
		t.Fatalf("Expected data array, got %T", resp.Data)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 recommendations, got %d", len(items))
	}
}

func TestRankLimitClampedToMax(t *testing.T) {
	t.Parallel()

	var gotLimit int
	ranker := &fakeRanker{
		rankFn: func(_ context.Context, _, _ string, limit int) ([]models.Recommendation, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := newTestHandler(t, ranker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rank?region=downtown&category=gym&limit=5000", nil)
	w := httptest.NewRecorder()
	h.Rank(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if gotLimit != 100 {
		t.Errorf("Expected limit clamped to 100, got %d", gotLimit)
	}
}

func TestRankMissingParams(t *testing.T) {
	t.Parallel()

	called := false
	ranker := &fakeRanker{
		rankFn: func(_ context.Context, _, _ string, _ int) ([]models.Recommendation, error) {
			called = true
			return nil, nil
		},
	}
	h := newTestHandler(t, ranker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rank?region=downtown", nil)
	w := httptest.NewRecorder()
	h.Rank(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	if called {
		t.Error("Ranker must not be called on validation failure")
	}

	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != ErrCodeValidation {
		t.Errorf("Expected %s error, got %+v", ErrCodeValidation, resp.Error)
	}
}

func TestRankErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown region", models.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"bad configuration", models.ErrConfiguration, http.StatusBadRequest, ErrCodeConfiguration},
		{"all sources down", models.ErrUpstreamUnavailable, http.StatusBadGateway, ErrCodeUpstreamUnavailable},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, ErrCodeInternal},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, ErrCodeInternal},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ranker := &fakeRanker{
				rankFn: func(_ context.Context, _, _ string, _ int) ([]models.Recommendation, error) {
					return nil, tc.err
				},
			}
			h := newTestHandler(t, ranker)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/rank?region=downtown&category=gym", nil)
			w := httptest.NewRecorder()
			h.Rank(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, w.Code)
			}
			resp := decodeEnvelope(t, w)
			if resp.Error == nil {
				t.Fatal("Expected error in envelope")
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %s, got %s", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestEvaluateDefaults(t *testing.T) {
	t.Parallel()

	var gotRadius float64
	var gotMode string
	ranker := &fakeRanker{
		evaluateFn: func(_ context.Context, _, _, radiusM float64, mode string) (models.Recommendation, error) {
			gotRadius, gotMode = radiusM, mode
			return models.Recommendation{Mode: mode}, nil
		},
	}
	h := newTestHandler(t, ranker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluate?lat=51.5074&lon=-0.1278", nil)
	w := httptest.NewRecorder()
	h.Evaluate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotRadius != 1000 {
		t.Errorf("Expected default radius 1000, got %v", gotRadius)
	}
	if gotMode != models.ModeFast {
		t.Errorf("Expected default mode fast, got %q", gotMode)
	}
}

func TestEvaluateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{"latitude out of range", "lat=95&lon=0"},
		{"longitude out of range", "lat=0&lon=181"},
		{"radius too small", "lat=51.5&lon=-0.12&radius_m=50"},
		{"radius too large", "lat=51.5&lon=-0.12&radius_m=9000"},
		{"invalid mode", "lat=51.5&lon=-0.12&mode=turbo"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(t, &fakeRanker{})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluate?"+tc.query, nil)
			w := httptest.NewRecorder()
			h.Evaluate(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestExplainSuccess(t *testing.T) {
	t.Parallel()

	ranker := &fakeRanker{
		explainFn: func(_ context.Context, gridID, category string) (models.Explanation, error) {
			return models.Explanation{GridID: gridID, Category: category, Rationale: "strong demand"}, nil
		},
	}
	h := newTestHandler(t, ranker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/explain/downtown-3-7?category=gym", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gridID", "downtown-3-7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.Explain(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeEnvelope(t, w)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %T", resp.Data)
	}
	if data["grid_id"] != "downtown-3-7" {
		t.Errorf("Expected grid_id downtown-3-7, got %v", data["grid_id"])
	}
}

func TestExplainMissingCategory(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeRanker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/explain/downtown-3-7", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gridID", "downtown-3-7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.Explain(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestExplainNotFound(t *testing.T) {
	t.Parallel()

	ranker := &fakeRanker{
		explainFn: func(_ context.Context, _, _ string) (models.Explanation, error) {
			return models.Explanation{}, models.ErrNotFound
		},
	}
	h := newTestHandler(t, ranker)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/explain/nope-0-0?category=gym", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gridID", "nope-0-0")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.Explain(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestImportDatasetsWithoutStore(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeRanker{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/import", nil)
	w := httptest.NewRecorder()
	h.ImportDatasets(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestHealthLive(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeRanker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	w := httptest.NewRecorder()
	h.HealthLive(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	resp := decodeEnvelope(t, w)
	data, ok := resp.Data.(map[string]interface{})
	if !ok || data["status"] != "alive" {
		t.Errorf("Expected alive status, got %v", resp.Data)
	}
}

func TestHealthReadyWithoutIndex(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeRanker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	w := httptest.NewRecorder()
	h.HealthReady(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 without a grid index, got %d", w.Code)
	}
}

func TestHealthDegradedWithoutDependencies(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeRanker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	resp := decodeEnvelope(t, w)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %T", resp.Data)
	}
	if data["status"] != "degraded" {
		t.Errorf("Expected degraded status, got %v", data["status"])
	}
}
