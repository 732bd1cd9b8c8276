// Package ratelimit bounds the rate of outbound model calls. One limiter is
// constructed at process start and shared by every agent run, so the global
// call rate holds no matter how many runs are active.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a blocking token bucket with capacity one: at most one call per
// interval, callers suspend until a token is available.
type Limiter struct {
	bucket *rate.Limiter
}

// New returns a limiter that releases one token per interval. A non-positive
// interval disables limiting.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{bucket: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}
