package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

func sampleSeries() ohlc.Series {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return ohlc.Series{
		{Date: base, Open: 10, High: 11, Low: 9, Close: 10.5},
		{Date: base.AddDate(0, 0, 1), Open: 10.5, High: 12, Low: 10, Close: 11.5},
	}
}

func TestOHLCCache_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewOHLCCacheFromClient(client, 5*time.Minute)

	mock.ExpectGet("ohlc:ERIC-B:2024-06-02").RedisNil()

	_, found, err := c.Get(context.Background(), "ERIC-B", "2024-06-02")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOHLCCache_SetThenGetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewOHLCCacheFromClient(client, 5*time.Minute)

	series := sampleSeries()
	data, err := json.Marshal(series)
	require.NoError(t, err)

	mock.ExpectSet("ohlc:ERIC-B:2024-06-02", data, 5*time.Minute).SetVal("OK")
	require.NoError(t, c.Set(context.Background(), "ERIC-B", "2024-06-02", series))

	mock.ExpectGet("ohlc:ERIC-B:2024-06-02").SetVal(string(data))
	got, found, err := c.Get(context.Background(), "ERIC-B", "2024-06-02")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, series, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOHLCCache_Delete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewOHLCCacheFromClient(client, 5*time.Minute)

	mock.ExpectDel("ohlc:ERIC-B:2024-06-02").SetVal(1)
	require.NoError(t, c.Delete(context.Background(), "ERIC-B", "2024-06-02"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
