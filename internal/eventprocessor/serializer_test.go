// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package eventprocessor

import (
	"errors"
	"testing"
)

func TestSerializeEventRejectsInvalid(t *testing.T) {
	t.Parallel()

	e := validEvent()
	e.Channel = ""
	if _, err := SerializeEvent(e); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("error = %v, want ErrInvalidEvent", err)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()

	lat, lon := 24.8607, 67.0011
	e := validEvent()
	e.Lat, e.Lon = &lat, &lon

	data, err := SerializeEvent(e)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, err := DeserializeEvent(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.EventID != e.EventID || got.Channel != e.Channel || got.SignalType != e.SignalType {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.Lat == nil || *got.Lat != lat {
		t.Errorf("lat = %v, want %v", got.Lat, lat)
	}
	if !got.PostedAt.Equal(e.PostedAt) {
		t.Errorf("posted_at = %v, want %v", got.PostedAt, e.PostedAt)
	}
}

func TestDeserializeEventMalformed(t *testing.T) {
	t.Parallel()

	if _, err := DeserializeEvent([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
