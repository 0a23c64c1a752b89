package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements per-operation rate limiting for the external providers.
// Each operation name ("perception", "creative") gets its own token bucket.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the named operation is allowed to proceed.
func (l *Limiter) Wait(ctx context.Context, op string) error {
	return l.getLimiter(op).Wait(ctx)
}

// Allow checks if the named operation may proceed without waiting.
func (l *Limiter) Allow(op string) bool {
	return l.getLimiter(op).Allow()
}

// SetRate sets a custom rate limit for a specific operation.
func (l *Limiter) SetRate(op string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[op] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// getLimiter returns the limiter for an operation, creating it on first use.
func (l *Limiter) getLimiter(op string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[op]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[op]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[op] = limiter

	return limiter
}
