package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSeries_Deterministic(t *testing.T) {
	a := NewDeterministicAdapter("ERIC-B")
	ctx := context.Background()

	s1, err := a.FetchSeries(ctx, "ERIC-B", "2024-06-10", 30)
	require.NoError(t, err)

	b := NewDeterministicAdapter("ERIC-B")
	s2, err := b.FetchSeries(ctx, "ERIC-B", "2024-06-10", 30)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
}

func TestFetchSeries_RowCountAndOrdering(t *testing.T) {
	a := NewDeterministicAdapter("ERIC-B")
	series, err := a.FetchSeries(context.Background(), "ERIC-B", "2024-06-10", 10)
	require.NoError(t, err)
	require.Len(t, series, 10)

	for i := 1; i < len(series); i++ {
		assert.True(t, series[i].Date.After(series[i-1].Date))
	}
	assert.Equal(t, "2024-06-10", series[len(series)-1].Date.Format("2006-01-02"))
}

func TestFetchSeries_InvalidDate(t *testing.T) {
	a := NewDeterministicAdapter("ERIC-B")
	_, err := a.FetchSeries(context.Background(), "ERIC-B", "not-a-date", 10)
	assert.Error(t, err)
}

func TestFetchSeries_HighLowBoundOpenClose(t *testing.T) {
	a := NewDeterministicAdapter("ERIC-B")
	series, err := a.FetchSeries(context.Background(), "ERIC-B", "2024-06-10", 20)
	require.NoError(t, err)

	for _, row := range series {
		assert.GreaterOrEqual(t, row.High, row.Open)
		assert.GreaterOrEqual(t, row.High, row.Close)
		assert.LessOrEqual(t, row.Low, row.Open)
		assert.LessOrEqual(t, row.Low, row.Close)
	}
}
