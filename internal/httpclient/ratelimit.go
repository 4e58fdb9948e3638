package httpclient

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing requests with a token bucket plus an
// optional jittered delay, kept close to the teacher's
// pkg/client/ratelimit.go — it was already a general request-rate
// control, not specific to WAF evasion.
type RateLimiter struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration
	jitter   bool
}

// NewRateLimiter creates a limiter allowing requestsPerSecond, with each
// granted token additionally delayed by [minDelay, maxDelay).
func NewRateLimiter(requestsPerSecond int, minDelay, maxDelay time.Duration) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   maxDelay > minDelay,
	}
}

// Wait blocks until a request may be made, respecting both the rate
// limit and the per-request delay (spec §6.1 `-s`/`--req-delay`).
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		return err
	}

	delay := rl.minDelay
	if rl.jitter {
		jitterRange := rl.maxDelay - rl.minDelay
		delay = rl.minDelay + time.Duration(rand.Int63n(int64(jitterRange)))
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SetRate updates the token bucket rate dynamically.
func (rl *RateLimiter) SetRate(requestsPerSecond int) {
	rl.limiter.SetLimit(rate.Limit(requestsPerSecond))
}
