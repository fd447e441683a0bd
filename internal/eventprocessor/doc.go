// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

// Package eventprocessor streams social signals into the dataset store over
// NATS JetStream with Watermill transport.
//
// A SignalEvent envelope travels on subject signals.<channel>.<signal_type>
// through the SIGNALS stream (limits retention, bounded age, server-side
// deduplication window). The Publisher wraps publishes in a circuit breaker
// and stamps the Nats-Msg-Id header so JetStream drops duplicates; the
// SignalConsumer validates events, converts them to social signals, and
// appends them to the store in batches flushed by count or interval.
//
// The heavy NATS dependencies sit behind the nats build tag, mirrored by
// stubs in default builds. At runtime the whole bus is additionally gated by
// configuration: when disabled nothing connects and the store is fed by
// dataset imports only.
package eventprocessor
