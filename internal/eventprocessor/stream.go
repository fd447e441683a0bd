// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build nats

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext is the subset of jetstream.JetStream used by
// StreamInitializer. Narrowing the dependency keeps tests mockable.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	DeleteStream(ctx context.Context, name string) error
}

// StreamInitializer provisions the SIGNALS stream before publishers and
// subscribers start. Stream creation is idempotent: an existing stream is
// updated in place to the configured limits.
type StreamInitializer struct {
	js     JetStreamContext
	config BusConfig
}

// NewStreamInitializer creates a stream initializer over an established
// JetStream context.
func NewStreamInitializer(js JetStreamContext, cfg BusConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &StreamInitializer{js: js, config: cfg}, nil
}

// EnsureStream creates or updates the SIGNALS stream. File storage for
// durability, LimitsPolicy retention (FIFO eviction at the limits), and a
// deduplication window matching the publisher's Nats-Msg-Id stamping.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      s.config.MaxAge,
		MaxBytes:    s.config.MaxBytes,
		MaxMsgs:     s.config.MaxMsgs,
		Duplicates:  s.config.DedupWindow,
		Storage:     jetstream.FileStorage,
		AllowDirect: true, // Required for efficient direct get
		Discard:     jetstream.DiscardOld,
	}

	_, err := s.js.Stream(ctx, StreamName)
	if err == nil {
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", StreamName, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", StreamName, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", StreamName, err)
}

// IsHealthy reports whether the stream exists and is accessible.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	_, err := s.js.Stream(ctx, StreamName)
	return err == nil
}
