// Package config loads the YAML-configurable tunables for the signal
// provider and the EW scoring router, the way internal/application/config.go
// loads cryptorun's weights/guards/limits configs: a plain struct with yaml
// tags, a Load function that reads the file and validates it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

// ProviderConfig is the YAML-loadable form of signals.Config.
type ProviderConfig struct {
	SMAWindow            int `yaml:"sma_window"`
	MomentumLookback     int `yaml:"momentum_lookback"`
	ATRWindow            int `yaml:"atr_window"`
	StabilizationDays    int `yaml:"stabilization_days"`
	EntrySMAWindow       int `yaml:"entry_sma_window"`
	InvalidationLookback int `yaml:"invalidation_lookback"`
	DowWindow            int `yaml:"dow_window"`
	SafetyMarginRows     int `yaml:"safety_margin_rows"`

	SMALen         int     `yaml:"sma_len"`
	SlopeLookback  int     `yaml:"slope_lookback"`
	RegimeWindow   int     `yaml:"regime_window"`
	AboveRatioMin  float64 `yaml:"above_ratio_min"`
	BreakLowWindow int     `yaml:"break_low_window"`
	DebounceDays   int     `yaml:"debounce_days"`

	RequireRowOnDate bool `yaml:"require_row_on_date"`
}

// DefaultProviderConfig mirrors signals.DefaultConfig in YAML-struct form,
// used when no config file is supplied.
func DefaultProviderConfig() ProviderConfig {
	d := signals.DefaultConfig()
	return ProviderConfig{
		SMAWindow:            d.SMAWindow,
		MomentumLookback:     d.MomentumLookback,
		ATRWindow:            d.ATRWindow,
		StabilizationDays:    d.StabilizationDays,
		EntrySMAWindow:       d.EntrySMAWindow,
		InvalidationLookback: d.InvalidationLookback,
		DowWindow:            d.DowWindow,
		SafetyMarginRows:     d.SafetyMarginRows,
		SMALen:               d.SMALen,
		SlopeLookback:        d.SlopeLookback,
		RegimeWindow:         d.RegimeWindow,
		AboveRatioMin:        d.AboveRatioMin,
		BreakLowWindow:       d.BreakLowWindow,
		DebounceDays:         d.DebounceDays,
		RequireRowOnDate:     d.RequireRowOnDate,
	}
}

// ToSignalsConfig converts the loaded YAML form into the domain config the
// provider actually consumes.
func (c ProviderConfig) ToSignalsConfig() signals.Config {
	return signals.Config{
		SMAWindow:            c.SMAWindow,
		MomentumLookback:     c.MomentumLookback,
		ATRWindow:            c.ATRWindow,
		StabilizationDays:    c.StabilizationDays,
		EntrySMAWindow:       c.EntrySMAWindow,
		InvalidationLookback: c.InvalidationLookback,
		DowWindow:            c.DowWindow,
		SafetyMarginRows:     c.SafetyMarginRows,
		SMALen:               c.SMALen,
		SlopeLookback:        c.SlopeLookback,
		RegimeWindow:         c.RegimeWindow,
		AboveRatioMin:        c.AboveRatioMin,
		BreakLowWindow:       c.BreakLowWindow,
		DebounceDays:         c.DebounceDays,
		RequireRowOnDate:     c.RequireRowOnDate,
	}
}

// Validate checks the loaded windows are all positive and the ratio is a
// proportion, the same shape of sanity check cryptorun's WeightsConfig.Validate
// applies to its own regime weights.
func (c ProviderConfig) Validate() error {
	positive := map[string]int{
		"sma_window":            c.SMAWindow,
		"atr_window":            c.ATRWindow,
		"stabilization_days":    c.StabilizationDays,
		"entry_sma_window":      c.EntrySMAWindow,
		"invalidation_lookback": c.InvalidationLookback,
		"dow_window":            c.DowWindow,
		"sma_len":               c.SMALen,
		"slope_lookback":        c.SlopeLookback,
		"regime_window":         c.RegimeWindow,
		"break_low_window":      c.BreakLowWindow,
		"debounce_days":         c.DebounceDays,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("provider config: %s must be positive, got %d", name, v)
		}
	}
	if c.AboveRatioMin < 0 || c.AboveRatioMin > 1 {
		return fmt.Errorf("provider config: above_ratio_min must be in [0,1], got %f", c.AboveRatioMin)
	}
	return nil
}

// LoadProviderConfig loads and validates a ProviderConfig from path.
func LoadProviderConfig(path string) (*ProviderConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider config: %w", err)
	}
	c := DefaultProviderConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provider config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("provider config validation failed: %w", err)
	}
	return &c, nil
}
