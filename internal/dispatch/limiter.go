package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AdaptiveLimiter paces gateway calls. The rate is cut on overload
// responses and creeps back up after a quiet period of successes.
type AdaptiveLimiter struct {
	mu        sync.RWMutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	calm      time.Duration
	lastError time.Time
}

// NewAdaptiveLimiter starts at one call per interval and never goes faster
// than that. stepDown multiplies the rate on overload (0.5 halves it);
// the rate never drops below a tenth of the initial one.
func NewAdaptiveLimiter(interval time.Duration, stepDown float64) *AdaptiveLimiter {
	initial := rate.Every(interval)
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, 1),
		minLimit: initial / 10,
		maxLimit: initial,
		stepUp:   initial / 10,
		stepDown: stepDown,
		calm:     10 * time.Second,
	}
}

// Wait blocks until a call is allowed or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate unless an overload was seen recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > a.calm {
		a.adjust(a.limiter.Limit() + a.stepUp)
	}
}

// RateLimited lowers the rate after an overload response.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.adjust(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current calls per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) adjust(limit rate.Limit) {
	limit = max(a.minLimit, min(limit, a.maxLimit))
	if limit != a.limiter.Limit() {
		a.limiter.SetLimit(limit)
	}
}
