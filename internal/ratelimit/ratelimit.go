// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of one counted request
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // time until the window resets
}

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Reset(ctx context.Context, key string) error
	Limit() int
	Close() error
}

type entry struct {
	count     int
	windowEnd time.Time
}

// MemoryLimiter keeps counters in process memory
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	ml := &MemoryLimiter{
		entries: make(map[string]*entry),
		rate:    rate,
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go ml.cleanup()

	return ml
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.windowEnd) {
		e = &entry{windowEnd: now.Add(m.window)}
		m.entries[key] = e
	}

	retryAfter := e.windowEnd.Sub(now)
	if e.count >= m.rate {
		return Result{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	e.count++
	return Result{Allowed: true, Remaining: m.rate - e.count, RetryAfter: retryAfter}, nil
}

func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryLimiter) Limit() int {
	return m.rate
}

// Close stops the cleanup goroutine; safe to call more than once
func (m *MemoryLimiter) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryLimiter) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.windowEnd) {
			delete(m.entries, key)
		}
	}
}
