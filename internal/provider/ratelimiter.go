package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by every request a renderer makes. The
// bucket starts full with burst tokens and regains one token per interval.
type RateLimiter struct {
	mu       sync.Mutex
	burst    int
	tokens   int
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		burst:    burst,
		tokens:   burst,
		interval: interval,
		last:     time.Now(),
		now:      time.Now,
	}
}

// Wait takes one token, sleeping until the next refill when the bucket is empty.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.take()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a token and returns 0, or returns how long until one is due.
func (r *RateLimiter) take() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.interval > 0 {
		if gained := int(now.Sub(r.last) / r.interval); gained > 0 {
			r.tokens = min(r.tokens+gained, r.burst)
			r.last = r.last.Add(time.Duration(gained) * r.interval)
		}
	} else {
		r.tokens = r.burst
	}

	if r.tokens > 0 {
		r.tokens--
		return 0
	}
	return max(r.last.Add(r.interval).Sub(now), time.Millisecond)
}
