package config

import "testing"

func TestDefaultProviderConfig_Valid(t *testing.T) {
	c := DefaultProviderConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected default provider config to validate, got %v", err)
	}
}

func TestProviderConfig_ValidateRejectsNonPositiveWindow(t *testing.T) {
	c := DefaultProviderConfig()
	c.SMAWindow = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for zero sma_window")
	}
}

func TestProviderConfig_ValidateRejectsOutOfRangeRatio(t *testing.T) {
	c := DefaultProviderConfig()
	c.AboveRatioMin = 1.5
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for above_ratio_min > 1")
	}
}

func TestProviderConfig_RoundTripsToSignalsConfig(t *testing.T) {
	c := DefaultProviderConfig()
	sc := c.ToSignalsConfig()
	if sc.SMAWindow != c.SMAWindow || sc.DowWindow != c.DowWindow {
		t.Fatal("expected ToSignalsConfig to carry over window settings")
	}
}

func TestDefaultEWRouterConfig_Valid(t *testing.T) {
	c := DefaultEWRouterConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected default ew router config to validate, got %v", err)
	}
}

func TestEWRouterConfig_RejectsTamperedThreshold(t *testing.T) {
	c := DefaultEWRouterConfig()
	omxs := c.Markets["omxs"]
	omxs.FastpassThreshold = 0.99
	c.Markets["omxs"] = omxs
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for tampered fastpass threshold")
	}
}

func TestEWRouterConfig_RejectsMissingMarket(t *testing.T) {
	c := DefaultEWRouterConfig()
	delete(c.Markets, "usa")
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for missing market")
	}
}
