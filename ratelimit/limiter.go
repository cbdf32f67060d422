// Package ratelimit throttles outbound deliveries per brand.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per brand. The bucket holds one second's
// worth of tokens and starts full.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether brandID may deliver now, consuming a token if so.
// A perSecond of 0 means unlimited.
func (l *Limiter) Allow(brandID string, perSecond int) bool {
	if perSecond <= 0 {
		return true
	}
	return l.bucket(brandID, perSecond).Allow()
}

// Wait blocks until brandID may deliver or ctx is done. A perSecond of 0
// means unlimited.
func (l *Limiter) Wait(ctx context.Context, brandID string, perSecond int) error {
	if perSecond <= 0 {
		return nil
	}
	return l.bucket(brandID, perSecond).Wait(ctx)
}

// Reset clears the rate limit state for a brand.
func (l *Limiter) Reset(brandID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, brandID)
}

// bucket returns the brand's limiter, adjusting it when the configured rate
// changed since it was created.
func (l *Limiter) bucket(brandID string, perSecond int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[brandID]
	if !ok {
		b = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		l.buckets[brandID] = b
		return b
	}
	if b.Burst() != perSecond {
		b.SetLimit(rate.Limit(perSecond))
		b.SetBurst(perSecond)
	}
	return b
}
