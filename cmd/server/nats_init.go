// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build nats

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/situs/internal/config"
	"github.com/tomtom215/situs/internal/database"
	"github.com/tomtom215/situs/internal/eventprocessor"
	"github.com/tomtom215/situs/internal/logging"
)

// IngestComponents holds the signal ingestion components for lifecycle
// management: the optional embedded NATS server, the provisioning
// connection, the JetStream subscriber, and the batch consumer feeding the
// dataset store.
type IngestComponents struct {
	server     *eventprocessor.EmbeddedServer
	natsConn   *natsgo.Conn
	subscriber *eventprocessor.Subscriber
	consumer   *eventprocessor.SignalConsumer

	mu      sync.Mutex
	running bool
	closed  bool
}

// busConfig maps the application NATS settings onto the ingestion bus
// defaults.
func busConfig(cfg *config.Config, natsURL string) eventprocessor.BusConfig {
	bus := eventprocessor.DefaultBusConfig()
	bus.URL = natsURL
	if cfg.NATS.StreamRetentionDays > 0 {
		bus.MaxAge = time.Duration(cfg.NATS.StreamRetentionDays) * 24 * time.Hour
	}
	if cfg.NATS.BatchSize > 0 {
		bus.BatchSize = cfg.NATS.BatchSize
	}
	if cfg.NATS.FlushInterval > 0 {
		bus.FlushInterval = cfg.NATS.FlushInterval
	}
	if cfg.NATS.SubscribersCount > 0 {
		bus.SubscribersCount = cfg.NATS.SubscribersCount
	}
	if cfg.NATS.DurableName != "" {
		bus.DurableName = cfg.NATS.DurableName
	}
	if cfg.NATS.QueueGroup != "" {
		bus.QueueGroup = cfg.NATS.QueueGroup
	}
	return bus
}

// InitIngest initializes signal ingestion when nats.enabled is true.
//
// Initialization order:
//  1. Embedded NATS server (if configured) or external URL
//  2. Provisioning connection and JetStream stream (idempotent)
//  3. Watermill subscriber bound to the stream
//  4. Batch consumer appending validated signals to the dataset store
//
// The returned components are started by the supervisor, not here.
func InitIngest(cfg *config.Config, db *database.DB) (*IngestComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Signal ingestion disabled (nats.enabled=false)")
		return nil, nil
	}
	if db == nil {
		return nil, fmt.Errorf("signal ingestion requires the dataset store")
	}

	logging.Info().Msg("Initializing signal ingestion...")

	components := &IngestComponents{}

	var natsURL string
	if cfg.NATS.EmbeddedServer {
		serverCfg := eventprocessor.DefaultServerConfig()
		if cfg.NATS.StoreDir != "" {
			serverCfg.StoreDir = cfg.NATS.StoreDir
		}
		if cfg.NATS.MaxMemory > 0 {
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}

		server, err := eventprocessor.NewEmbeddedServer(serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.server = server
		natsURL = server.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		natsURL = cfg.NATS.URL
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	bus := busConfig(cfg, natsURL)

	// Provisioning connection: ensures the stream exists before the
	// subscriber binds to it.
	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.natsConn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamInit, err := eventprocessor.NewStreamInitializer(js, bus)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	stream, err := streamInit.EnsureStream(context.Background())
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	streamInfo := stream.CachedInfo()
	logging.Info().
		Str("name", streamInfo.Config.Name).
		Strs("subjects", streamInfo.Config.Subjects).
		Dur("max_age", streamInfo.Config.MaxAge).
		Msg("JetStream stream ready")

	subscriber, err := eventprocessor.NewSubscriber(bus, nil)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	components.subscriber = subscriber

	consumer, err := eventprocessor.NewSignalConsumer(subscriber, db, bus)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create signal consumer: %w", err)
	}
	components.consumer = consumer
	logging.Info().
		Int("batch_size", bus.BatchSize).
		Dur("flush_interval", bus.FlushInterval).
		Msg("Signal consumer created")

	components.mu.Lock()
	components.running = true
	components.mu.Unlock()

	logging.Info().Msg("Signal ingestion initialized")
	return components, nil
}

// Start begins message consumption. Called by the supervisor after the
// process is otherwise ready.
func (c *IngestComponents) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.consumer != nil {
		if err := c.consumer.Start(ctx); err != nil {
			return fmt.Errorf("start signal consumer: %w", err)
		}
		logging.Info().Msg("Signal consumer started")
	}
	return nil
}

// Shutdown gracefully stops all ingestion components.
//
// Shutdown order matters: the consumer drains and flushes its buffer first,
// then the subscriber and connection close, and the embedded server stops
// last so in-flight acks still reach it.
func (c *IngestComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.running = false
	c.mu.Unlock()

	if c.consumer != nil {
		c.consumer.Stop()
		logging.Info().Msg("Signal consumer stopped")
	}
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing subscriber")
		}
	}
	if c.natsConn != nil {
		c.natsConn.Close()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
		logging.Info().Msg("Embedded NATS server stopped")
	}
}

// IsRunning reports whether ingestion components are active.
func (c *IngestComponents) IsRunning() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
