package ratelimit

import (
	"context"
	"sync"
	"time"
)

// staleAfterPeriods controls the sweeper: entries whose window started
// this many periods ago are evicted.
const staleAfterPeriods = 3

type entry struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. All counter access
// is serialized through a single mutex, so concurrent requests from the
// same key cannot lose updates. A background sweeper evicts long-idle
// keys so the map does not grow with distinct-IP cardinality forever.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	limit  int
	period time.Duration
	now    func() time.Time

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemoryLimiter constructs a limiter allowing limit requests per period
// and starts its eviction sweeper.
func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		entries:   make(map[string]*entry),
		limit:     limit,
		period:    period,
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}
	go l.sweep()
	return l
}

// WithClock overrides the limiter clock. Used by tests to control windows.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(ctx context.Context, key string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) > l.period {
		l.entries[key] = &entry{count: 1, windowStart: now}
		return nil
	}
	if e.count >= l.limit {
		return ErrRateLimited
	}
	e.count++
	return nil
}

// Close stops the eviction sweeper.
func (l *MemoryLimiter) Close() {
	l.stopOnce.Do(func() {
		close(l.stopSweep)
	})
}

func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(l.period * staleAfterPeriods)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopSweep:
			return
		case <-ticker.C:
			l.evictStale()
		}
	}
}

func (l *MemoryLimiter) evictStale() {
	cutoff := l.now().Add(-l.period * staleAfterPeriods)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if e.windowStart.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
