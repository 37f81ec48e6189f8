package ai

import (
	"context"
	"sync"
	"time"
)

// SlidingWindowLimiter admits at most limit calls per rolling window.
// A call that would exceed the limit blocks until the oldest call in the
// window expires; callers experience latency, not errors, under load.
// The limiter is an injected component shared by all gateway calls in a
// process, and every network attempt consumes budget.
type SlidingWindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
	now    func() time.Time
}

// NewSlidingWindowLimiter creates a limiter admitting limit calls per window.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until the window admits another call, then records it.
// It returns early only when ctx is cancelled.
func (l *SlidingWindowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.calls) < l.limit {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.calls[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// InFlight returns the number of calls currently counted in the window.
func (l *SlidingWindowLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.calls)
}

// prune drops recorded calls older than the window. Caller holds l.mu.
func (l *SlidingWindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}
