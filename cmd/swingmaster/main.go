// Package main is the swingmaster binary: a Cobra root command with
// evaluate/range/monitor subcommands, adapted from cmd/cryptorun/main.go's
// root-command wiring (zerolog console writer, cobra.Command tree,
// rootCmd.Execute at the bottom of main) with the teacher's interactive
// menu entry point dropped — nothing in this engine calls for a TTY menu.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/obslog"
)

const (
	appName = "swingmaster"
	version = "v1.0.0"
)

func main() {
	obslog.Init(zerolog.InfoLevel)

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Deterministic exclusion-first market-state engine for swing investing",
		Version: version,
		Long: `swingmaster evaluates a ticker's market state, one (ticker, as_of_date)
at a time: OHLC history in, a state-machine decision and entry-window score
out, nothing fetched or written beyond what that single evaluation needs.

Run 'swingmaster evaluate' for a single (ticker, date) pair, 'swingmaster
range' to replay a ticker universe across a date span, or 'swingmaster
monitor' to expose health and metrics over HTTP.`,
	}

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newRangeCmd())
	rootCmd.AddCommand(newMonitorCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
