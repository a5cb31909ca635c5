package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kalletarpila/swingmaster/internal/domain/ewscore"
)

// EWRouterConfig is the YAML-loadable form of the ewscore router tables
// (spec.md §4.5): enabled flags, locked rule ids, and thresholds per market
// and mode. Present so the rule-id/threshold tables can be reviewed and
// audited as data, but LoadEWRouterConfig enforces that the loaded values
// match the compiled-in locked tables exactly — rule ids and thresholds are
// immutable per spec.md §6.5, not environment-tunable.
type EWRouterConfig struct {
	Markets map[string]EWMarketConfig `yaml:"markets"`
}

// EWMarketConfig is one market's fastpass/rolling configuration.
type EWMarketConfig struct {
	FastpassEnabled   bool    `yaml:"fastpass_enabled"`
	FastpassRuleID    string  `yaml:"fastpass_rule_id"`
	FastpassThreshold float64 `yaml:"fastpass_threshold"`
	RollingEnabled    bool    `yaml:"rolling_enabled"`
	RollingRuleID     string  `yaml:"rolling_rule_id,omitempty"`
	RollingThreshold  float64 `yaml:"rolling_threshold,omitempty"`
}

// DefaultEWRouterConfig mirrors the compiled-in ewscore router tables.
func DefaultEWRouterConfig() EWRouterConfig {
	markets := []ewscore.Market{ewscore.MarketOMXH, ewscore.MarketOMXS, ewscore.MarketUSA}
	out := EWRouterConfig{Markets: make(map[string]EWMarketConfig, len(markets))}
	for _, m := range markets {
		mc := EWMarketConfig{FastpassEnabled: ewscore.FastpassEnabled(m), RollingEnabled: ewscore.RollingEnabled(m)}
		if id, ok := ewscore.RuleID(m, ewscore.ModeFastpass); ok {
			mc.FastpassRuleID = id
			mc.FastpassThreshold, _ = ewscore.Threshold(m, ewscore.ModeFastpass)
		}
		if id, ok := ewscore.RuleID(m, ewscore.ModeRolling); ok {
			mc.RollingRuleID = id
			mc.RollingThreshold, _ = ewscore.Threshold(m, ewscore.ModeRolling)
		}
		out.Markets[string(m)] = mc
	}
	return out
}

// Validate enforces rule-id and threshold immutability: a loaded config
// must match the compiled-in locked tables byte-for-byte, or it is rejected.
func (c EWRouterConfig) Validate() error {
	locked := DefaultEWRouterConfig()
	for market, want := range locked.Markets {
		got, ok := c.Markets[market]
		if !ok {
			return fmt.Errorf("ew router config: missing market %q", market)
		}
		if got.FastpassEnabled != want.FastpassEnabled || got.FastpassRuleID != want.FastpassRuleID ||
			got.FastpassThreshold != want.FastpassThreshold {
			return fmt.Errorf("ew router config: fastpass settings for %q do not match the locked rule-id/threshold table", market)
		}
		if got.RollingEnabled != want.RollingEnabled || got.RollingRuleID != want.RollingRuleID ||
			got.RollingThreshold != want.RollingThreshold {
			return fmt.Errorf("ew router config: rolling settings for %q do not match the locked rule-id/threshold table", market)
		}
	}
	return nil
}

// LoadEWRouterConfig loads an EWRouterConfig from path and validates it
// against the locked tables.
func LoadEWRouterConfig(path string) (*EWRouterConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ew router config: %w", err)
	}
	c := DefaultEWRouterConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ew router config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
