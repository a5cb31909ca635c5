package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpinterfaces "github.com/kalletarpila/swingmaster/internal/interfaces/http"
)

// newMonitorCmd builds the monitor subcommand: a read-only /health and
// /metrics HTTP server over the wired repository, adapted from
// cmd/cryptorun/monitor_main.go's signal-driven graceful-shutdown loop, but
// delegating all route/middleware setup to the already-built
// internal/interfaces/http.Server rather than hand-assembling a mux here.
func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the monitoring HTTP server",
		Long:  "Starts an HTTP server exposing /health and /metrics for the wired persistence layer.",
		RunE:  runMonitorCmd,
	}
	cmd.Flags().String("host", "127.0.0.1", "HTTP server host")
	cmd.Flags().Int("port", 8080, "HTTP server port")
	addCommonFlags(cmd)
	return cmd
}

func runMonitorCmd(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	w, err := buildWiring(cmd)
	if err != nil {
		return err
	}
	defer w.close()

	serverCfg := httpinterfaces.DefaultServerConfig()
	serverCfg.Host = host
	serverCfg.Port = port

	metrics := httpinterfaces.NewMetricsRegistry()
	server, err := httpinterfaces.NewServer(serverCfg, w.health, metrics)
	if err != nil {
		return fmt.Errorf("build monitor server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Info().Str("addr", server.GetAddress()).Msg("swingmaster monitor server running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("monitor server shutdown complete")
	return nil
}
