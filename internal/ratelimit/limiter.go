package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const minBackoff = 100 * time.Millisecond

// Limiter wraps rate.Limiter with a 429 penalty window
type Limiter struct {
	limiter *rate.Limiter
	name    string
	mu      sync.Mutex
	backoff time.Duration
	maxWait time.Duration
	until   time.Time // no requests before this instant
}

// NewLimiter creates a new rate limiter
// perMinute specifies the number of requests allowed per minute
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	rps := float64(perMinute) / 60.0
	// Allow burst of up to 5 requests or 1/10th of per-minute limit
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
		backoff: minBackoff,
		maxWait: 2 * time.Minute,
	}
}

// Wait blocks until the penalty window has passed and a token is available,
// or the context is cancelled
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	delay := time.Until(l.until)
	l.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	blocked := time.Now().Before(l.until)
	l.mu.Unlock()
	if blocked {
		return false
	}
	return l.limiter.Allow()
}

// SignalRateLimited should be called when a 429 response is received.
// It doubles the backoff and blocks callers for that long.
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.backoff *= 2
	if l.backoff > l.maxWait {
		l.backoff = l.maxWait
	}
	l.until = time.Now().Add(l.backoff)
	log.Printf("[RATELIMIT] %s throttled, backing off %v", l.name, l.backoff)
}

// ResetBackoff resets the backoff duration after successful request
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backoff = minBackoff
	l.until = time.Time{}
}

// GetBackoff returns the current backoff duration
func (l *Limiter) GetBackoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backoff
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
