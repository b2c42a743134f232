// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package datasource

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process DataSource holding a single value for a limited time.
type Memory[V any] struct {
	mu      sync.RWMutex
	value   V
	stored  time.Time
	present bool
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory returns an empty Memory whose value expires ttl after it was
// stored. A ttl of zero keeps values until replaced.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{ttl: ttl, now: time.Now}
}

// Get returns the stored value or [ErrNoValue] if there is none or it expired.
func (m *Memory[V]) Get(context.Context) (V, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.present || (m.ttl > 0 && m.now().Sub(m.stored) >= m.ttl) {
		var zero V
		return zero, ErrNoValue
	}
	return m.value, nil
}

// Set replaces the stored value.
func (m *Memory[V]) Set(_ context.Context, v V) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = v
	m.stored = m.now()
	m.present = true
	return nil
}

// Clear drops the stored value.
func (m *Memory[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	m.value = zero
	m.present = false
}
