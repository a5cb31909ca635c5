// Package cache implements a read-through Redis cache in front of an OHLC
// source, adapted from cryptorun's datafacade RedisCache: a thin
// Get/Set/Delete wrapper over go-redis, generalized here from trades/klines/
// orderbook keys to a single OHLC-series key per (ticker, as-of date).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

// OHLCCache is a read-through cache of OHLC series keyed by (ticker, as-of
// date), so repeated evaluations for the same ticker on the same date
// within an orchestration run skip the OHLC source entirely.
type OHLCCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOHLCCache opens a Redis client and verifies connectivity.
func NewOHLCCache(addr, password string, db int, ttl time.Duration) (*OHLCCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &OHLCCache{client: rdb, ttl: ttl}, nil
}

// NewOHLCCacheFromClient wraps an existing redis.Client, used by tests to
// inject a redismock client.
func NewOHLCCacheFromClient(client *redis.Client, ttl time.Duration) *OHLCCache {
	return &OHLCCache{client: client, ttl: ttl}
}

func buildKey(ticker, asOfDate string) string {
	return fmt.Sprintf("ohlc:%s:%s", ticker, asOfDate)
}

// Get retrieves the cached OHLC series for (ticker, asOfDate). found is
// false on a cache miss.
func (c *OHLCCache) Get(ctx context.Context, ticker, asOfDate string) (ohlc.Series, bool, error) {
	val, err := c.client.Get(ctx, buildKey(ticker, asOfDate)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("ohlc cache get: %w", err)
	}

	var series ohlc.Series
	if err := json.Unmarshal(val, &series); err != nil {
		return nil, false, fmt.Errorf("ohlc cache unmarshal: %w", err)
	}
	return series, true, nil
}

// Set stores an OHLC series for (ticker, asOfDate) using the cache's
// default TTL.
func (c *OHLCCache) Set(ctx context.Context, ticker, asOfDate string, series ohlc.Series) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("ohlc cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, buildKey(ticker, asOfDate), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ohlc cache set: %w", err)
	}
	return nil
}

// Delete evicts the cached series for (ticker, asOfDate), used when an
// upstream OHLC revision invalidates the cached snapshot.
func (c *OHLCCache) Delete(ctx context.Context, ticker, asOfDate string) error {
	if err := c.client.Del(ctx, buildKey(ticker, asOfDate)).Err(); err != nil {
		return fmt.Errorf("ohlc cache delete: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *OHLCCache) Close() error {
	return c.client.Close()
}
