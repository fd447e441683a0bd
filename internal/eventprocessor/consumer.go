// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

//go:build nats

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/situs/internal/logging"
	"github.com/tomtom215/situs/internal/metrics"
	"github.com/tomtom215/situs/internal/models"
)

// MessageSource is the subset of Subscriber the consumer needs. The
// abstraction keeps consumer tests free of a live broker.
type MessageSource interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// SignalStore persists validated signals. Satisfied by database.DB.
type SignalStore interface {
	AppendSignals(ctx context.Context, signals []models.SocialSignal) error
}

// ConsumerStats holds runtime counters for monitoring.
type ConsumerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	ParseErrors       int64
	BatchesFlushed    int64
	LastMessageTime   time.Time
}

type pendingSignal struct {
	signal models.SocialSignal
	msg    *message.Message
}

// SignalConsumer consumes signal events from JetStream and writes them to
// the signal store in batches. Messages stay unacked until their batch is
// durably stored: a flush failure nacks the whole batch so JetStream
// redelivers, and malformed payloads are acked immediately since redelivery
// cannot fix them. Duplicate suppression happens server-side through the
// stream's Nats-Msg-Id window.
type SignalConsumer struct {
	source MessageSource
	store  SignalStore
	config BusConfig
	events *logging.EventLogger

	mu      sync.Mutex
	pending []pendingSignal

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	messagesReceived  atomic.Int64
	messagesProcessed atomic.Int64
	parseErrors       atomic.Int64
	batchesFlushed    atomic.Int64
	lastMessageTime   atomic.Value // time.Time
}

// NewSignalConsumer creates a consumer over a subscribed message source.
// The consumer owns batching and flushing; the store only sees full batches.
func NewSignalConsumer(source MessageSource, store SignalStore, cfg BusConfig) (*SignalConsumer, error) {
	if source == nil {
		return nil, fmt.Errorf("message source required")
	}
	if store == nil {
		return nil, fmt.Errorf("signal store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &SignalConsumer{
		source:  source,
		store:   store,
		config:  cfg,
		events:  logging.NewEventLogger(),
		pending: make([]pendingSignal, 0, cfg.BatchSize),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	c.lastMessageTime.Store(time.Time{})
	return c, nil
}

// Start subscribes to the signal subjects and begins consuming.
// Returns immediately; consumption happens in a goroutine.
func (c *SignalConsumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return nil // Already running
	}

	messages, err := c.source.Subscribe(ctx, TopicAll)
	if err != nil {
		c.running.Store(false)
		return fmt.Errorf("subscribe to %s: %w", TopicAll, err)
	}

	go c.consumeLoop(ctx, messages)

	c.events.LogSubscriptionStarted(TopicAll, c.config.BatchSize, c.config.FlushInterval)
	return nil
}

// Stop flushes the pending batch and stops the consumer.
func (c *SignalConsumer) Stop() {
	if !c.running.Swap(false) {
		return // Already stopped
	}

	close(c.stopCh)
	<-c.doneCh

	c.events.LogSubscriptionStopped(TopicAll)
}

// IsRunning reports whether the consumer loop is active.
func (c *SignalConsumer) IsRunning() bool {
	return c.running.Load()
}

// Stats returns current runtime counters.
func (c *SignalConsumer) Stats() ConsumerStats {
	var lastTime time.Time
	if t, ok := c.lastMessageTime.Load().(time.Time); ok {
		lastTime = t
	}
	return ConsumerStats{
		MessagesReceived:  c.messagesReceived.Load(),
		MessagesProcessed: c.messagesProcessed.Load(),
		ParseErrors:       c.parseErrors.Load(),
		BatchesFlushed:    c.batchesFlushed.Load(),
		LastMessageTime:   lastTime,
	}
}

// consumeLoop buffers messages and flushes by size or interval. On shutdown
// it drains the channel buffer and flushes the final batch so nothing
// received before the stop signal is lost.
func (c *SignalConsumer) consumeLoop(ctx context.Context, messages <-chan *message.Message) {
	defer func() {
		c.running.Store(false)
		close(c.doneCh)
	}()

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drain(messages)
			c.flush(context.Background())
			return
		case <-c.stopCh:
			c.drain(messages)
			c.flush(context.Background())
			return
		case <-ticker.C:
			c.flush(ctx)
		case msg, ok := <-messages:
			if !ok {
				c.flush(context.Background())
				return
			}
			if c.buffer(msg) >= c.config.BatchSize {
				c.flush(ctx)
			}
		}
	}
}

// drain pulls whatever is already buffered in the channel. A short timeout
// keeps shutdown bounded if the channel keeps receiving.
func (c *SignalConsumer) drain(messages <-chan *message.Message) {
	drainTimeout := time.After(100 * time.Millisecond)
	drained := 0

	for {
		select {
		case <-drainTimeout:
			if drained > 0 {
				c.events.LogDrained(drained)
			}
			return
		case msg, ok := <-messages:
			if !ok {
				if drained > 0 {
					c.events.LogDrained(drained)
				}
				return
			}
			c.buffer(msg)
			drained++
		default:
			if drained > 0 {
				c.events.LogDrained(drained)
			}
			return
		}
	}
}

// buffer parses one message into the pending batch and returns the new
// batch length. Malformed or invalid payloads are acked and counted.
func (c *SignalConsumer) buffer(msg *message.Message) int {
	c.messagesReceived.Add(1)
	c.lastMessageTime.Store(time.Now())
	metrics.RecordNATSConsume()

	event, err := DeserializeEvent(msg.Payload)
	if err == nil {
		err = event.Validate()
	}
	if err != nil {
		c.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		c.events.LogSignalDropped(msg.Context(), msg.UUID, err)
		msg.Ack() // Redelivery cannot fix malformed data
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.pending)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, pendingSignal{signal: event.SocialSignal(), msg: msg})
	return len(c.pending)
}

// flush writes the pending batch to the store. All messages in the batch
// share one fate: acked together on success, nacked together on failure.
func (c *SignalConsumer) flush(ctx context.Context) {
	c.mu.Lock()
	batch := c.pending
	c.pending = make([]pendingSignal, 0, c.config.BatchSize)
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	start := time.Now()
	signals := make([]models.SocialSignal, len(batch))
	for i, p := range batch {
		signals[i] = p.signal
	}

	if err := c.store.AppendSignals(ctx, signals); err != nil {
		c.events.LogFlushFailed(ctx, len(batch), err)
		for _, p := range batch {
			p.msg.Nack()
		}
		return
	}

	for _, p := range batch {
		p.msg.Ack()
	}
	c.messagesProcessed.Add(int64(len(batch)))
	c.batchesFlushed.Add(1)
	for range batch {
		metrics.RecordNATSProcessed()
	}
	metrics.RecordNATSProcessingDuration(time.Since(start))
	metrics.RecordNATSBatchFlush(time.Since(start), len(batch))

	c.events.LogBatchFlush(ctx, len(batch), time.Since(start))
}
