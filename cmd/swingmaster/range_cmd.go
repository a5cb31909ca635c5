package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/orchestration"
)

// newRangeCmd builds the range subcommand: fans an Engine out across a
// ticker universe and date span via orchestration.RangeRunner, grounded on
// cmd/cryptorun/main.go's runPairsSync handler (flags -> context with
// timeout -> collaborator call -> formatted summary).
func newRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Evaluate a ticker universe across a date range",
		Long:  "Runs every ticker in --tickers across [--from, --to] inclusive, ascending by date per ticker, fanned out across tickers up to --concurrency at a time.",
		RunE:  runRange,
	}
	cmd.Flags().String("tickers", "", "Comma-separated ticker list (required)")
	cmd.Flags().String("from", "", "Range start date, YYYY-MM-DD (required)")
	cmd.Flags().String("to", "", "Range end date, YYYY-MM-DD (required)")
	cmd.Flags().Int("concurrency", 4, "Maximum tickers evaluated concurrently")
	cmd.Flags().String("run-id", "", "Run id to tag written rows with (default: a generated uuid)")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Overall run timeout")
	cmd.MarkFlagRequired("tickers")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	addCommonFlags(cmd)
	return cmd
}

func runRange(cmd *cobra.Command, args []string) error {
	tickersRaw, _ := cmd.Flags().GetString("tickers")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	tickers := splitTickers(tickersRaw)
	if len(tickers) == 0 {
		return fmt.Errorf("--tickers must name at least one ticker")
	}

	w, err := buildWiring(cmd)
	if err != nil {
		return err
	}
	defer w.close()

	runID, _ := cmd.Flags().GetString("run-id")
	if runID != "" {
		w.runID = runID
		w.runRow.RunID = runID
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := w.writeRunRow(ctx); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	runner := orchestration.NewRangeRunner(w.engine, orchestration.RangeRunnerConfig{
		From: from, To: to, Concurrency: concurrency,
	})
	results, err := runner.Run(ctx, tickers, w.runID)
	if err != nil {
		return fmt.Errorf("range run: %w", err)
	}

	summary := make([]map[string]any, 0, len(results))
	for _, r := range results {
		entry := map[string]any{"ticker": r.Ticker, "days_evaluated": len(r.Dates)}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		} else if len(r.Outcomes) > 0 {
			last := r.Outcomes[len(r.Outcomes)-1]
			entry["final_state"] = last.Decision.NextState
			entry["final_age"] = last.Decision.Age
		}
		summary = append(summary, entry)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"run_id": w.runID, "from": from, "to": to, "results": summary})
}

func splitTickers(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
