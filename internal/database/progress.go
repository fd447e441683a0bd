// Situs - Location Opportunity Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/situs

package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// progressKey is the BadgerDB key for the import checkpoint. It lives in the
// same Badger database as the cache, outside the cache's key prefix, so
// cache clears never erase a checkpoint.
const progressKey = "import:dataset:progress"

// BadgerProgress persists import checkpoints in BadgerDB, surviving
// application restarts.
type BadgerProgress struct {
	db *badger.DB
}

// NewBadgerProgress creates a progress tracker over the given BadgerDB.
func NewBadgerProgress(db *badger.DB) *BadgerProgress {
	return &BadgerProgress{db: db}
}

// Save persists the checkpoint.
func (p *BadgerProgress) Save(ctx context.Context, progress *ImportProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(progressKey), data)
	})
}

// Load retrieves the last checkpoint. Returns nil, nil when none was saved.
func (p *BadgerProgress) Load(ctx context.Context) (*ImportProgress, error) {
	var progress ImportProgress
	found := false

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &progress)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &progress, nil
}

// Clear removes the checkpoint after a completed import.
func (p *BadgerProgress) Clear(ctx context.Context) error {
	return p.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(progressKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// InMemoryProgress is a non-persistent ProgressTracker for tests.
type InMemoryProgress struct {
	mu       sync.Mutex
	progress *ImportProgress
}

// NewInMemoryProgress creates an empty in-memory tracker.
func NewInMemoryProgress() *InMemoryProgress {
	return &InMemoryProgress{}
}

// Save stores a copy of the checkpoint.
func (p *InMemoryProgress) Save(_ context.Context, progress *ImportProgress) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *progress
	p.progress = &cp
	return nil
}

// Load returns the last checkpoint, nil when none was saved.
func (p *InMemoryProgress) Load(_ context.Context) (*ImportProgress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.progress == nil {
		return nil, nil
	}
	cp := *p.progress
	return &cp, nil
}

// Clear drops the checkpoint.
func (p *InMemoryProgress) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = nil
	return nil
}

// Compile-time interface checks.
var (
	_ ProgressTracker = (*BadgerProgress)(nil)
	_ ProgressTracker = (*InMemoryProgress)(nil)
)
