// Package ratelimit provides the global politeness gate of a crawl.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between outbound fetches.
// It is global: every host shares the same budget.
//
// The underlying token bucket has a burst of one, so the first Acquire
// returns immediately and each following Acquire returns no earlier than
// 1/perSecond after the previous one. Waiters are released in FIFO order.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// New creates a Limiter allowing perSecond acquisitions per second.
// A non-positive rate disables limiting.
func New(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		interval: time.Duration(float64(time.Second) / perSecond),
	}
}

// Acquire blocks until the next fetch is allowed.
// It only fails when ctx is cancelled (or its deadline is too close to wait).
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the enforced minimum spacing, or 0 when unlimited.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
