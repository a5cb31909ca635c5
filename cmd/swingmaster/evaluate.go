package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newEvaluateCmd builds the evaluate subcommand: one (ticker, as_of_date)
// evaluation, printed as JSON to stdout. Grounded on cmd/cryptorun/main.go's
// runScan handler shape (flags -> context with timeout -> pipeline call ->
// formatted result), narrowed to a single evaluation instead of a universe
// scan.
func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one ticker for one as-of date",
		Long:  "Runs a single (ticker, as_of_date) evaluation through the signal/policy/EW-scoring chain and prints the resulting decision as JSON.",
		RunE:  runEvaluate,
	}
	cmd.Flags().String("ticker", "", "Ticker to evaluate (required)")
	cmd.Flags().String("as-of-date", "", "Evaluation date, YYYY-MM-DD (required)")
	cmd.Flags().String("run-id", "", "Run id to tag written rows with (default: a generated uuid)")
	cmd.MarkFlagRequired("ticker")
	cmd.MarkFlagRequired("as-of-date")
	addCommonFlags(cmd)
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ticker, _ := cmd.Flags().GetString("ticker")
	asOfDate, _ := cmd.Flags().GetString("as-of-date")
	if _, err := time.Parse("2006-01-02", asOfDate); err != nil {
		return fmt.Errorf("invalid --as-of-date %q: %w", asOfDate, err)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.writeRunRow(ctx); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	outcome, err := w.engine.Evaluate(ctx, ticker, asOfDate, w.runID)
	if err != nil {
		return fmt.Errorf("evaluate %s at %s: %w", ticker, asOfDate, err)
	}

	out := map[string]any{
		"ticker":      ticker,
		"as_of_date":  asOfDate,
		"run_id":      w.runID,
		"from_state":  outcome.Decision.FromState,
		"next_state":  outcome.Decision.NextState,
		"age":         outcome.Decision.Age,
		"reasons":     outcome.Decision.Reasons,
		"signals":     outcome.Signals.Keys(),
	}
	if outcome.EWScore != nil {
		out["ew_fastpass"] = outcome.EWScore
	}
	if outcome.EWRolling != nil {
		out["ew_rolling"] = outcome.EWRolling
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
