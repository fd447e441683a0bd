// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package eventprocessor

import (
	"fmt"
	"time"
)

// Stream topology constants. The stream name cannot contain wildcards, so
// subscribers bind to StreamName explicitly instead of auto-provisioning.
const (
	StreamName     = "SIGNALS"
	StreamSubjects = "signals.>"
	TopicAll       = "signals.>"
)

// BusConfig holds the transport settings shared by publisher, subscriber,
// stream provisioning, and the batch consumer.
type BusConfig struct {
	// URL is the NATS server address; superseded by the embedded server's
	// client URL when one is running.
	URL string

	// MaxReconnects and ReconnectWait bound client-side reconnection.
	MaxReconnects int
	ReconnectWait time.Duration

	// QueueGroup balances consumption across instances; DurableName keeps
	// consumer progress across restarts.
	QueueGroup  string
	DurableName string

	// SubscribersCount is the number of concurrent message pullers. One
	// gives strict ordering; more gives throughput.
	SubscribersCount int

	// AckWait is how long JetStream waits before redelivering an unacked
	// message.
	AckWait time.Duration

	// MaxDeliver bounds redelivery attempts per message.
	MaxDeliver int

	// Stream retention.
	MaxAge      time.Duration
	MaxBytes    int64
	MaxMsgs     int64
	DedupWindow time.Duration

	// Batch consumer tuning: flush when BatchSize events are buffered or
	// FlushInterval elapses, whichever comes first.
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultBusConfig returns production defaults: 7 day retention, 2 minute
// server-side dedup window, 500-event batches flushed at least every 5s.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		URL:              "nats://127.0.0.1:4222",
		MaxReconnects:    -1, // retry forever
		ReconnectWait:    2 * time.Second,
		QueueGroup:       "signal-processors",
		DurableName:      "signal-consumer",
		SubscribersCount: 1,
		AckWait:          30 * time.Second,
		MaxDeliver:       5,
		MaxAge:           7 * 24 * time.Hour,
		MaxBytes:         10 << 30,
		MaxMsgs:          -1,
		DedupWindow:      2 * time.Minute,
		BatchSize:        500,
		FlushInterval:    5 * time.Second,
	}
}

// Validate checks the settings a misconfiguration would turn into silent
// data loss. Failures wrap ErrInvalidConfig.
func (c BusConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: NATS URL is empty", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size %d must be positive", ErrInvalidConfig, c.BatchSize)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval %v must be positive", ErrInvalidConfig, c.FlushInterval)
	}
	if c.AckWait <= 0 {
		return fmt.Errorf("%w: ack wait %v must be positive", ErrInvalidConfig, c.AckWait)
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("%w: stream max age %v must be positive", ErrInvalidConfig, c.MaxAge)
	}
	if c.DedupWindow < 0 {
		return fmt.Errorf("%w: dedup window %v must be non-negative", ErrInvalidConfig, c.DedupWindow)
	}
	if c.SubscribersCount <= 0 {
		return fmt.Errorf("%w: subscribers count %d must be positive", ErrInvalidConfig, c.SubscribersCount)
	}
	return nil
}

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns embedded-server defaults: loopback only, OS
// picks a free port.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   1 << 30,
		JetStreamMaxStore: 10 << 30,
	}
}
