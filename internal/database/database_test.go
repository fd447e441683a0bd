// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/situs/internal/config"
	"github.com/tomtom215/situs/internal/models"
)

// testDBSemaphore serializes DuckDB creation: concurrent CGO connection
// setup can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
		Threads:   1,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func rating(v float64) *float64 { return &v }

func testPayload() *DatasetPayload {
	now := time.Now().UTC()
	return &DatasetPayload{
		Businesses: []models.BusinessRecord{
			{ID: "b1", Name: "Iron Works Gym", Category: "gym", Location: models.Coordinate{Lat: 24.820, Lon: 67.030}, Rating: rating(4.5), ReviewCount: 120},
			{ID: "b2", Name: "Flex Fitness", Category: "gym", Location: models.Coordinate{Lat: 24.825, Lon: 67.035}, ReviewCount: 8},
			{ID: "b3", Name: "Bean Scene", Category: "cafe", Location: models.Coordinate{Lat: 24.821, Lon: 67.031}, Rating: rating(4.1), ReviewCount: 45},
		},
		Signals: []models.SocialSignal{
			{ID: "s1", Category: "gym", Channel: "instagram", Type: models.SignalDemand, Text: "need a gym around here", Engagement: 40, PostedAt: now.AddDate(0, 0, -5), Location: &models.Coordinate{Lat: 24.822, Lon: 67.032}},
			{ID: "s2", Category: "gym", Channel: "reddit", Type: models.SignalComplaint, Text: "the only gym nearby is always packed", Engagement: 75, PostedAt: now.AddDate(0, 0, -10), Location: &models.Coordinate{Lat: 24.823, Lon: 67.033}},
			{ID: "s3", Category: "gym", Channel: "reddit", Type: models.SignalMention, Text: "no geotag on this one", Engagement: 5, PostedAt: now.AddDate(0, 0, -200)},
		},
	}
}

func TestImportAndFetchByBounds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	importer := NewImporter(db, NewInMemoryProgress())
	stats, err := importer.Import(ctx, testPayload())
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Businesses != 3 || stats.Signals != 3 {
		t.Errorf("stats = %d businesses %d signals, want 3 and 3", stats.Businesses, stats.Signals)
	}
	if stats.Duplicate {
		t.Error("first import must not be flagged duplicate")
	}

	bounds := models.BoundingBox{North: 24.83, South: 24.81, East: 67.04, West: 67.02}
	gyms, err := db.FetchByBounds(ctx, "gym", bounds)
	if err != nil {
		t.Fatalf("fetch by bounds failed: %v", err)
	}
	if len(gyms) != 2 {
		t.Fatalf("got %d gyms, want 2", len(gyms))
	}
	if gyms[0].ID != "b1" || gyms[1].ID != "b2" {
		t.Errorf("gyms ordered %s, %s, want b1, b2", gyms[0].ID, gyms[1].ID)
	}
	if gyms[0].Rating == nil || *gyms[0].Rating != 4.5 {
		t.Errorf("b1 rating = %v, want 4.5", gyms[0].Rating)
	}
	if gyms[1].Rating != nil {
		t.Errorf("b2 rating must stay absent, got %v", *gyms[1].Rating)
	}
}

func TestImportIdempotentByFingerprint(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	importer := NewImporter(db, nil)

	if _, err := importer.Import(ctx, testPayload()); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	stats, err := importer.Import(ctx, testPayload())
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if !stats.Duplicate {
		t.Error("re-import of the same payload must be flagged duplicate")
	}
	if stats.Businesses != 0 || stats.Signals != 0 {
		t.Errorf("duplicate import wrote %d/%d records, want 0/0", stats.Businesses, stats.Signals)
	}

	businesses, signals, err := db.RecordCounts(ctx)
	if err != nil {
		t.Fatalf("record counts failed: %v", err)
	}
	if businesses != 3 || signals != 3 {
		t.Errorf("counts = %d/%d after duplicate import, want 3/3", businesses, signals)
	}
}

func TestImportRejectsInvalidPayloads(t *testing.T) {
	db := setupTestDB(t)
	importer := NewImporter(db, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload *DatasetPayload
	}{
		{"nil payload", nil},
		{"empty payload", &DatasetPayload{}},
		{"business without id", &DatasetPayload{Businesses: []models.BusinessRecord{{Category: "gym"}}}},
		{"signal with bad type", &DatasetPayload{Signals: []models.SocialSignal{
			{ID: "s", Category: "gym", Channel: "reddit", Type: "noise", PostedAt: time.Now()},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.Import(ctx, tt.payload)
			if !errors.Is(err, ErrInvalidDataset) {
				t.Errorf("err = %v, want ErrInvalidDataset", err)
			}
		})
	}
}

func TestFetchSignalsWindowAndGeotags(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	if _, err := NewImporter(db, nil).Import(ctx, testPayload()); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	bounds := models.BoundingBox{North: 24.83, South: 24.81, East: 67.04, West: 67.02}

	// 90-day window drops s3 (200 days old).
	signals, err := db.Fetch(ctx, "gym", bounds, 90)
	if err != nil {
		t.Fatalf("fetch signals failed: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("windowed fetch returned %d signals, want 2", len(signals))
	}

	// Window disabled: the old ungeotagged signal comes back with a nil
	// location.
	signals, err = db.Fetch(ctx, "gym", bounds, 0)
	if err != nil {
		t.Fatalf("unwindowed fetch failed: %v", err)
	}
	if len(signals) != 3 {
		t.Fatalf("unwindowed fetch returned %d signals, want 3", len(signals))
	}
	var s3 *models.SocialSignal
	for i := range signals {
		if signals[i].ID == "s3" {
			s3 = &signals[i]
		}
	}
	if s3 == nil {
		t.Fatal("ungeotagged signal s3 missing from results")
	}
	if s3.Location != nil {
		t.Errorf("s3 location = %v, want nil (absent, not zero)", s3.Location)
	}
}

func TestFetchByRadiusRefinesWithHaversine(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	if _, err := NewImporter(db, nil).Import(ctx, testPayload()); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	center := models.Coordinate{Lat: 24.820, Lon: 67.030}

	// 200m catches only b1 (coincident); b2 sits ~750m away.
	near, err := db.FetchByRadius(ctx, "gym", center, 200)
	if err != nil {
		t.Fatalf("fetch by radius failed: %v", err)
	}
	if len(near) != 1 || near[0].ID != "b1" {
		t.Fatalf("200m radius = %v, want just b1", ids(near))
	}

	// 2km catches both gyms but never the cafe.
	wide, err := db.FetchByRadius(ctx, "gym", center, 2000)
	if err != nil {
		t.Fatalf("fetch by radius failed: %v", err)
	}
	if len(wide) != 2 {
		t.Fatalf("2km radius = %v, want b1 and b2", ids(wide))
	}
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	records, err := db.FetchByBounds(ctx, "gym", models.BoundingBox{North: 1, South: 0, East: 1, West: 0})
	if err != nil {
		t.Fatalf("fetch on empty store failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("empty store returned %d records", len(records))
	}
}

func TestConcurrentImportRejected(t *testing.T) {
	db := setupTestDB(t)
	importer := NewImporter(db, nil)

	importer.mu.Lock()
	importer.running = true
	importer.mu.Unlock()

	_, err := importer.Import(context.Background(), testPayload())
	if !errors.Is(err, ErrImportInProgress) {
		t.Errorf("err = %v, want ErrImportInProgress", err)
	}
}

func TestAppendSignalsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sig := models.SocialSignal{
		ID: "ev1", Category: "cafe", Channel: "instagram", Type: models.SignalDemand,
		Text: "wish there was a coffee place here", Engagement: 12,
		PostedAt: time.Now().UTC(), Location: &models.Coordinate{Lat: 24.82, Lon: 67.03},
	}
	if err := db.AppendSignals(ctx, []models.SocialSignal{sig}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	// Redelivery of the same event must not duplicate the row.
	if err := db.AppendSignals(ctx, []models.SocialSignal{sig}); err != nil {
		t.Fatalf("redelivered append failed: %v", err)
	}

	_, signals, err := db.RecordCounts(ctx)
	if err != nil {
		t.Fatalf("record counts failed: %v", err)
	}
	if signals != 1 {
		t.Errorf("signal count = %d after redelivery, want 1", signals)
	}
}

func TestInMemoryProgressRoundTrip(t *testing.T) {
	tracker := NewInMemoryProgress()
	ctx := context.Background()

	if p, err := tracker.Load(ctx); err != nil || p != nil {
		t.Fatalf("fresh tracker Load = %v, %v, want nil, nil", p, err)
	}

	saved := &ImportProgress{Fingerprint: "abc", Done: 10, Total: 100, StartedAt: time.Now().UTC()}
	if err := tracker.Save(ctx, saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := tracker.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Done != 10 || loaded.Total != 100 || loaded.Fingerprint != "abc" {
		t.Errorf("loaded %+v does not match saved checkpoint", loaded)
	}

	if err := tracker.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if p, _ := tracker.Load(ctx); p != nil {
		t.Error("checkpoint survived Clear")
	}
}

func ids(records []models.BusinessRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
