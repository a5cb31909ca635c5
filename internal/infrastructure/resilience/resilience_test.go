package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerManager_ExecuteUnregisteredProvider(t *testing.T) {
	m := NewBreakerManager()
	_, err := m.Execute("ohlc-source", func() (interface{}, error) { return nil, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestBreakerManager_ExecutePassesThroughResult(t *testing.T) {
	m := NewBreakerManager()
	m.Register("ohlc-source", BreakerConfig{
		Name:                "ohlc-source",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		ErrorRateThreshold:  50,
		ConsecutiveFailures: 5,
	})

	got, err := m.Execute("ohlc-source", func() (interface{}, error) { return "rows", nil })
	require.NoError(t, err)
	assert.Equal(t, "rows", got)

	state, ok := m.State("ohlc-source")
	assert.True(t, ok)
	assert.Equal(t, "closed", state.String())
}

func TestBreakerManager_TripsAfterConsecutiveFailures(t *testing.T) {
	m := NewBreakerManager()
	m.Register("ohlc-source", BreakerConfig{
		Name:                "ohlc-source",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		ErrorRateThreshold:  50,
		ConsecutiveFailures: 2,
	})

	failing := func() (interface{}, error) { return nil, errors.New("fetch failed") }
	_, _ = m.Execute("ohlc-source", failing)
	_, _ = m.Execute("ohlc-source", failing)

	state, ok := m.State("ohlc-source")
	assert.True(t, ok)
	assert.Equal(t, "open", state.String())

	_, err := m.Execute("ohlc-source", func() (interface{}, error) { return "rows", nil })
	assert.Error(t, err)
}

func TestRateLimiter_WaitUnregisteredProvider(t *testing.T) {
	r := NewRateLimiter()
	err := r.Wait(context.Background(), "ohlc-source")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	r := NewRateLimiter()
	r.Register("ohlc-source", RateLimiterConfig{RequestsPerSecond: 1, Burst: 2})

	assert.True(t, r.Allow("ohlc-source"))
	assert.True(t, r.Allow("ohlc-source"))
	assert.False(t, r.Allow("ohlc-source"))
}

func TestRateLimiter_WaitAdmitsWithinContext(t *testing.T) {
	r := NewRateLimiter()
	r.Register("ohlc-source", RateLimiterConfig{RequestsPerSecond: 100, Burst: 5})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx, "ohlc-source"))
}
