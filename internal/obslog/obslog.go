// Package obslog wires up the process-wide zerolog logger the same way
// cmd/cryptorun/main.go does: a console writer on stderr with Kitchen-time
// formatting, RFC3339 for any structured time fields.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger for CLI use. Safe to call more
// than once; the last call wins.
func Init(level zerolog.Level) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level)
}

// Component returns a sub-logger tagged with the given component name, for
// the orchestration/persistence/infra layers that are allowed to log. The
// pure signal/policy core never imports this package — it stays a function
// of its inputs, per spec.md §5.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
