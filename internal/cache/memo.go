// Package cache provides the time-bounded memo that sits between the
// dashboards and the pipeline.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a fresh value.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Memo remembers the last successful load for a fixed TTL. It is keyed by
// operation, not by input: there is exactly one value. Concurrent callers
// that arrive while a load is in flight share its result.
type Memo[T any] struct {
	loadedAt time.Time
	value    T
	load     LoadFunc[T]
	now      func() time.Time
	group    singleflight.Group
	ttl      time.Duration
	mu       sync.RWMutex
	valid    bool
}

// NewMemo creates a memo around load. A zero ttl disables caching.
func NewMemo[T any](ttl time.Duration, load LoadFunc[T]) *Memo[T] {
	return &Memo[T]{
		ttl:  ttl,
		load: load,
		now:  time.Now,
	}
}

// Get returns the cached value while it is fresh, otherwise loads a new one.
// Failed loads are not cached.
func (m *Memo[T]) Get(ctx context.Context) (T, error) {
	if v, ok := m.cached(); ok {
		return v, nil
	}
	return m.Refresh(ctx)
}

// Refresh loads unconditionally and replaces the cached value on success.
func (m *Memo[T]) Refresh(ctx context.Context) (T, error) {
	// Shared loads outlive the caller that started them.
	loadCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan("load", func() (any, error) {
		v, err := m.load(loadCtx)
		if err != nil {
			return v, err
		}
		m.mu.Lock()
		m.value = v
		m.loadedAt = m.now()
		m.valid = true
		m.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// Invalidate drops the cached value.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	var zero T
	m.value = zero
}

// LoadedAt returns when the cached value was produced.
func (m *Memo[T]) LoadedAt() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadedAt, m.valid
}

func (m *Memo[T]) cached() (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.valid || m.ttl <= 0 || m.now().Sub(m.loadedAt) >= m.ttl {
		var zero T
		return zero, false
	}
	return m.value, true
}
