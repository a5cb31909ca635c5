package orchestration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

func TestRangeRunner_Run_RejectsIncompatibleVersionsBeforeAnyEvaluation(t *testing.T) {
	repo := newInMemoryRepo()
	cfg := EngineConfig{SignalVersion: "v3", PolicyVersion: "v1", SignalConfig: signals.DefaultConfig()}
	e := NewEngine(cfg, shortSource{n: 3}, repo.repository(), nil, nil, nil)
	runner := NewRangeRunner(e, RangeRunnerConfig{From: "2024-06-10", To: "2024-06-12"})

	_, err := runner.Run(context.Background(), []string{"ERIC-B"}, "run-1")
	require.Error(t, err)

	got, getErr := repo.repository().StateDaily.Get(context.Background(), "ERIC-B", "2024-06-10")
	require.NoError(t, getErr)
	assert.Nil(t, got)
}

func TestRangeRunner_Run_CarriesStateForwardAcrossDatesAscending(t *testing.T) {
	repo := newInMemoryRepo()
	cfg := EngineConfig{SignalVersion: "v1", PolicyVersion: "v1", SignalConfig: signals.DefaultConfig()}
	e := NewEngine(cfg, shortSource{n: 3}, repo.repository(), nil, nil, nil)
	runner := NewRangeRunner(e, RangeRunnerConfig{From: "2024-06-10", To: "2024-06-14", Concurrency: 2})

	results, err := runner.Run(context.Background(), []string{"ERIC-B", "SAMPO"}, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, result := range results {
		require.NoError(t, result.Err)
		require.Len(t, result.Dates, 5)
		assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14"}, result.Dates)

		for i := 1; i < len(result.Outcomes); i++ {
			assert.Equal(t, result.Outcomes[i-1].Decision.NextState, result.Outcomes[i].Decision.FromState,
				"day %d's from-state must equal day %d's next-state", i, i-1)
		}
	}
}

func TestRangeRunner_Run_MultipleTickersAreIndependent(t *testing.T) {
	repo := newInMemoryRepo()
	cfg := EngineConfig{SignalVersion: "v1", PolicyVersion: "v1", SignalConfig: signals.DefaultConfig()}
	e := NewEngine(cfg, shortSource{n: 3}, repo.repository(), nil, nil, nil)
	runner := NewRangeRunner(e, RangeRunnerConfig{From: "2024-06-10", To: "2024-06-10"})

	results, err := runner.Run(context.Background(), []string{"ERIC-B", "SAMPO", "NDA-FI"}, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	tickers := make(map[string]bool, 3)
	for _, r := range results {
		tickers[r.Ticker] = true
		require.NoError(t, r.Err)
	}
	assert.True(t, tickers["ERIC-B"] && tickers["SAMPO"] && tickers["NDA-FI"])
}

func TestDateRange_RejectsInvertedSpan(t *testing.T) {
	_, err := dateRange("2024-06-15", "2024-06-10")
	assert.Error(t, err)
}

func TestDateRange_InclusiveAscending(t *testing.T) {
	dates, err := dateRange("2024-06-10", "2024-06-12")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12"}, dates)
}
