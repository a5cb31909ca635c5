package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kalletarpila/swingmaster/internal/obslog"
)

// RateLimiterConfig configures one provider's token bucket.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RateLimiter owns one golang.org/x/time/rate.Limiter per OHLC provider
// name, mirroring the per-provider map in
// internal/infrastructure/providers/ratelimit.go.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewRateLimiter creates an empty limiter set; providers are registered via
// Register.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*rate.Limiter)}
}

// Register installs a token bucket for provider under cfg.
func (r *RateLimiter) Register(provider string, cfg RateLimiterConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[provider] = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

// Wait blocks until provider's bucket admits a request or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, provider string) error {
	r.mu.RLock()
	limiter, ok := r.limiters[provider]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("rate limiter not registered for provider: %s", provider)
	}

	start := time.Now()
	err := limiter.Wait(ctx)
	if waited := time.Since(start); waited > 100*time.Millisecond {
		obslog.Component("resilience").Debug().
			Str("provider", provider).
			Dur("waited", waited).
			Msg("rate limiter throttled request")
	}
	return err
}

// Allow reports whether provider's bucket currently admits a request without
// blocking, consuming a token if so.
func (r *RateLimiter) Allow(provider string) bool {
	r.mu.RLock()
	limiter, ok := r.limiters[provider]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return limiter.Allow()
}
