package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/config"
	"github.com/kalletarpila/swingmaster/internal/domain/ewscore"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
	"github.com/kalletarpila/swingmaster/internal/infrastructure/cache"
	"github.com/kalletarpila/swingmaster/internal/infrastructure/db"
	"github.com/kalletarpila/swingmaster/internal/infrastructure/resilience"
	"github.com/kalletarpila/swingmaster/internal/orchestration"
	"github.com/kalletarpila/swingmaster/internal/persistence"
	"github.com/kalletarpila/swingmaster/internal/persistence/memory"
	"github.com/kalletarpila/swingmaster/internal/ports/fake"
)

// ohlcProviderName is the resilience.BreakerManager/RateLimiter key every
// evaluation's OHLC fetch runs under. One provider today (the fake
// deterministic adapter) but the key is threaded through orchestration.Engine
// regardless, so swapping in a real venue adapter is a ports.OHLCSource
// substitution, not a resilience-wiring change.
const ohlcProviderName = "primary-ohlc"

// addCommonFlags registers the flags evaluate/range/monitor all share:
// version pairing, policy id, market, and the optional config/database
// overrides.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("signal-version", "v1", "Signal version (v1|v2|v3)")
	cmd.Flags().String("policy-version", "v1", "Policy version (v1|v2|v3), must pair with signal-version")
	cmd.Flags().String("policy-id", "default", "Policy identifier recorded on rc_run")
	cmd.Flags().String("market", string(ewscore.MarketUSA), "Market for EW scoring routing (omxh|omxs|usa)")
	cmd.Flags().String("provider-config", "", "Path to signal provider YAML config (default compiled-in)")
	cmd.Flags().String("ew-router-config", "", "Path to EW router YAML config (default compiled-in, must match)")
	cmd.Flags().Bool("db", false, "Persist to PostgreSQL instead of the in-memory repository")
	cmd.Flags().String("db-dsn", "", "PostgreSQL DSN, required when --db is set")
	cmd.Flags().String("redis-addr", "", "Redis address for the OHLC cache (empty disables caching)")
	cmd.Flags().Int64("fake-seed", 1, "Seed for the deterministic fake OHLC source")
}

// wiring bundles the collaborators built from common flags, shared by
// evaluate/range/monitor.
type wiring struct {
	engine *orchestration.Engine
	repo   persistence.Repository
	health persistence.RepositoryHealth
	dbMgr  *db.Manager
	runID  string
	runRow persistence.RunRow
	engCfg orchestration.EngineConfig
}

// buildWiring reads the common flags off cmd and constructs an Engine ready
// to evaluate. The caller is responsible for calling writeRunRow once per
// invocation, before any Evaluate/Run call, and for closing dbMgr.
func buildWiring(cmd *cobra.Command) (*wiring, error) {
	signalVersion, _ := cmd.Flags().GetString("signal-version")
	policyVersion, _ := cmd.Flags().GetString("policy-version")
	policyID, _ := cmd.Flags().GetString("policy-id")
	market, _ := cmd.Flags().GetString("market")
	providerConfigPath, _ := cmd.Flags().GetString("provider-config")
	ewRouterConfigPath, _ := cmd.Flags().GetString("ew-router-config")
	useDB, _ := cmd.Flags().GetBool("db")
	dbDSN, _ := cmd.Flags().GetString("db-dsn")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	fakeSeed, _ := cmd.Flags().GetInt64("fake-seed")

	if err := orchestration.CheckVersionCompatibility(signalVersion, policyVersion); err != nil {
		return nil, err
	}

	signalCfg := signals.DefaultConfig()
	if providerConfigPath != "" {
		loaded, err := config.LoadProviderConfig(providerConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load provider config: %w", err)
		}
		signalCfg = loaded.ToSignalsConfig()
	}

	if ewRouterConfigPath != "" {
		// LoadEWRouterConfig validates against the locked tables itself
		// (spec.md §6.5 rule ids/thresholds are immutable); loading is
		// enough to fail fast on a mismatched file.
		if _, err := config.LoadEWRouterConfig(ewRouterConfigPath); err != nil {
			return nil, fmt.Errorf("load ew router config: %w", err)
		}
	}

	dbCfg := db.DefaultConfig()
	dbCfg.Enabled = useDB
	dbCfg.DSN = dbDSN
	dbMgr, err := db.NewManager(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("database manager: %w", err)
	}

	var repo persistence.Repository
	var health persistence.RepositoryHealth
	if dbMgr.IsEnabled() {
		repo = *dbMgr.Repository()
		health = dbMgr.Health()
	} else {
		mem := memory.New()
		repo = mem.Repository()
		health = mem
	}

	var ohlcCache *cache.OHLCCache
	if redisAddr != "" {
		ohlcCache, err = cache.NewOHLCCache(redisAddr, "", 0, 24*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("ohlc cache: %w", err)
		}
	}

	breakers := resilience.NewBreakerManager()
	breakers.Register(ohlcProviderName, resilience.BreakerConfig{
		Name: ohlcProviderName, MaxRequests: 3, Interval: time.Minute,
		Timeout: 30 * time.Second, ErrorRateThreshold: 50, ConsecutiveFailures: 5,
	})
	limiter := resilience.NewRateLimiter()
	limiter.Register(ohlcProviderName, resilience.RateLimiterConfig{RequestsPerSecond: 5, Burst: 5})

	source := fake.NewAdapter(fakeSeed)

	engCfg := orchestration.EngineConfig{
		SignalVersion: signalVersion,
		PolicyVersion: policyVersion,
		PolicyID:      policyID,
		Market:        ewscore.Market(market),
		OHLCProvider:  ohlcProviderName,
		SignalConfig:  signalCfg,
	}
	engine := orchestration.NewEngine(engCfg, source, repo, ohlcCache, breakers, limiter)

	runID := uuid.New().String()
	return &wiring{
		engine: engine,
		repo:   repo,
		health: health,
		dbMgr:  dbMgr,
		runID:  runID,
		runRow: persistence.RunRow{
			RunID: runID, EngineVersion: signalVersion, PolicyID: policyID, PolicyVersion: policyVersion,
		},
		engCfg: engCfg,
	}, nil
}

// writeRunRow records this invocation's version pairing under its run id
// (spec.md §6.3 rc_run) before any per-ticker evaluation begins.
func (w *wiring) writeRunRow(ctx context.Context) error {
	return w.repo.Runs.Create(ctx, w.runRow)
}

// close releases the database connection, if one was opened.
func (w *wiring) close() error {
	if w.dbMgr == nil {
		return nil
	}
	return w.dbMgr.Close()
}
