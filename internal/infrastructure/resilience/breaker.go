// Package resilience guards the OHLC data-source adapter calls the
// orchestration layer makes against an external provider: a circuit breaker
// per provider name and a token-bucket rate limiter per provider name,
// adapted from internal/infrastructure/providers/circuitbreakers.go and
// ratelimit.go, generalized from cryptorun's exchange-provider map to
// swingmaster's OHLC-source provider map and logged via obslog/zerolog
// instead of fmt.Printf.
package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kalletarpila/swingmaster/internal/obslog"
)

// BreakerManager owns one gobreaker.CircuitBreaker per OHLC provider name.
type BreakerManager struct {
	breakers map[string]*gobreaker.CircuitBreaker
	mu       sync.RWMutex
}

// BreakerConfig configures one provider's circuit breaker.
type BreakerConfig struct {
	Name                string
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ErrorRateThreshold  float64
	ConsecutiveFailures uint32
}

// NewBreakerManager creates an empty manager; providers are registered via
// Register.
func NewBreakerManager() *BreakerManager {
	return &BreakerManager{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

// Register installs a circuit breaker for provider under cfg.
func (m *BreakerManager) Register(provider string, cfg BreakerConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := obslog.Component("resilience")
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests >= 10 {
				errorRate := float64(counts.TotalFailures) / float64(counts.Requests) * 100
				if errorRate >= cfg.ErrorRateThreshold {
					return true
				}
			}
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("provider", provider).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}
	m.breakers[provider] = gobreaker.NewCircuitBreaker(settings)
}

// Execute runs fn through provider's breaker.
func (m *BreakerManager) Execute(provider string, fn func() (interface{}, error)) (interface{}, error) {
	m.mu.RLock()
	breaker, ok := m.breakers[provider]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("circuit breaker not registered for provider: %s", provider)
	}
	return breaker.Execute(fn)
}

// State returns the current breaker state for provider.
func (m *BreakerManager) State(provider string) (gobreaker.State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	breaker, ok := m.breakers[provider]
	if !ok {
		return gobreaker.StateClosed, false
	}
	return breaker.State(), true
}
