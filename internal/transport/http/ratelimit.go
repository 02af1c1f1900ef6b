package http

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter caps inbound frames per connection: limit frames per window,
// refilled evenly. It is used from a single read loop.
type rateLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	if limit <= 0 || window <= 0 {
		return &rateLimiter{}
	}
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
		now:     now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limiter == nil {
		return true
	}
	return r.limiter.AllowN(r.now(), 1)
}
