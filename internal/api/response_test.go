// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRespondDataEnvelope(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondData(w, map[string]int{"cells": 42}, time.Now().Add(-25*time.Millisecond))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("Expected ETag header")
	}

	resp := decodeEnvelope(t, w)
	if resp.Status != "success" {
		t.Errorf("Expected status success, got %q", resp.Status)
	}
	if resp.Metadata.Timestamp.IsZero() {
		t.Error("Expected metadata timestamp")
	}
	if resp.Metadata.QueryTimeMS < 25 {
		t.Errorf("Expected query_time_ms >= 25, got %d", resp.Metadata.QueryTimeMS)
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondError(w, http.StatusNotFound, ErrCodeNotFound, "region not found", map[string]interface{}{"region": "atlantis"})

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}

	resp := decodeEnvelope(t, w)
	if resp.Status != "error" {
		t.Errorf("Expected status error, got %q", resp.Status)
	}
	if resp.Error == nil {
		t.Fatal("Expected error in envelope")
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeNotFound, resp.Error.Code)
	}
	if resp.Error.Details["region"] != "atlantis" {
		t.Errorf("Expected details to carry the region, got %v", resp.Error.Details)
	}
}

func TestGenerateETag(t *testing.T) {
	t.Parallel()

	a := generateETag([]byte(`{"status":"success"}`))
	b := generateETag([]byte(`{"status":"success"}`))
	c := generateETag([]byte(`{"status":"error"}`))

	if a != b {
		t.Errorf("Same payload must yield the same ETag: %s vs %s", a, b)
	}
	if a == c {
		t.Error("Different payloads must yield different ETags")
	}
}

func TestGetIntParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"present", "limit=25", 25},
		{"missing", "", 10},
		{"malformed", "limit=many", 10},
		{"negative", "limit=-3", -3},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			if got := getIntParam(r, "limit", 10); got != tc.want {
				t.Errorf("getIntParam = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestGetFloatParam(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/?radius_m=1500.5", nil)
	if got := getFloatParam(r, "radius_m", 1000); got != 1500.5 {
		t.Errorf("getFloatParam = %v, want 1500.5", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := getFloatParam(r, "radius_m", 1000); got != 1000 {
		t.Errorf("getFloatParam default = %v, want 1000", got)
	}
}
