// Package ratelimit implements a per-tenant token bucket rate limiter.
// Thread-safe. No background goroutines — tokens are refilled lazily on each Allow call.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRateLimited is returned when a tenant has exhausted its token bucket.
var ErrRateLimited = errors.New("rate limit exceeded")

// Config configures the token bucket rate limiter.
type Config struct {
	RatePerSecond float64 // Tokens added per second. 0 = unlimited (Allow always succeeds).
	BurstSize     int     // Maximum tokens in bucket. 0 = defaults to 2x rate, minimum 1.
}

// Limiter is a per-tenant token bucket rate limiter.
// Each tenant gets an independent bucket; a noisy tenant cannot exhaust
// another tenant's quota.
type Limiter struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*bucket
	rate    float64 // tokens per second
	burst   float64 // max bucket capacity
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// NewLimiter creates a rate limiter with the given configuration.
// If RatePerSecond is 0, Allow always succeeds (unlimited).
func NewLimiter(cfg Config) *Limiter {
	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = cfg.RatePerSecond * 2
	}
	if burst < 1 {
		burst = 1 // safety floor
	}
	return &Limiter{
		tenants: make(map[uuid.UUID]*bucket),
		rate:    cfg.RatePerSecond,
		burst:   burst,
	}
}

// Allow checks whether the tenant has tokens remaining.
// Consumes one token on success. Returns ErrRateLimited if the bucket is empty.
func (l *Limiter) Allow(tenantID uuid.UUID) error {
	// Unlimited mode.
	if l.rate <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.tenants[tenantID]
	if !ok {
		// First request: start with a full bucket.
		b = &bucket{tokens: l.burst, lastFill: now}
		l.tenants[tenantID] = b
	}

	// Refill tokens based on elapsed time.
	elapsed := now.Sub(b.lastFill).Seconds()
	b.tokens += elapsed * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.lastFill = now

	// Try to consume one token.
	if b.tokens < 1 {
		return ErrRateLimited
	}
	b.tokens--
	return nil
}

// Prune drops buckets idle longer than maxIdle. Call periodically to keep
// the map from growing with churned tenants.
func (l *Limiter) Prune(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for id, b := range l.tenants {
		if b.lastFill.Before(cutoff) {
			delete(l.tenants, id)
		}
	}
}
