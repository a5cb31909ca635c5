// Package ewscore implements the dual-mode (fastpass/rolling) entry-window
// scoring engine from spec.md §4.5: per-market routing, locked rule ids,
// the uniform 0/1/2/3 level contract, and the audit-inputs JSON shape each
// mode must populate. Grounded on internal/persistence/postgres/regime_repo.go's
// isolated-column-group UPSERT pattern (see the persistence/postgres
// package) and config/regime/weights.go's per-regime threshold-table shape.
package ewscore

// Market is one of the three markets the router recognizes.
type Market string

const (
	MarketOMXH Market = "omxh"
	MarketOMXS Market = "omxs"
	MarketUSA  Market = "usa"
)

// Mode distinguishes the two scoring passes.
type Mode string

const (
	ModeFastpass Mode = "fastpass"
	ModeRolling  Mode = "rolling"
)

// rollingEnabled is ROLLING_ENABLED from spec.md §4.5.
var rollingEnabled = map[Market]bool{
	MarketOMXH: true,
	MarketOMXS: true,
	MarketUSA:  false,
}

// fastpassEnabled is FASTPASS_ENABLED from spec.md §4.5.
var fastpassEnabled = map[Market]bool{
	MarketOMXH: true,
	MarketOMXS: true,
	MarketUSA:  true,
}

// rollingRuleID is the locked rolling rule id per market (spec.md §4.5).
// USA has no rolling rule id: rolling scoring is disabled for usa.
var rollingRuleID = map[Market]string{
	MarketOMXH: "EW_SCORE_ROLLING_V2_FIN",
	MarketOMXS: "EW_SCORE_ROLLING_V2_SE",
}

// fastpassRuleID is the locked fastpass rule id per market (spec.md §4.5).
var fastpassRuleID = map[Market]string{
	MarketOMXH: "EW_SCORE_FASTPASS_V1_FIN",
	MarketOMXS: "EW_SCORE_FASTPASS_V1_SE",
	MarketUSA:  "EW_SCORE_FASTPASS_V1_USA_SMALL",
}

// fastpassThreshold is the fastpass threshold table (spec.md §4.5), keyed
// by Market: omxh carries the FIN threshold, omxs the SE threshold, and
// usa the USA_SMALL threshold. USA has no rolling threshold.
var fastpassThreshold = map[Market]float64{
	MarketUSA:  0.60,
	MarketOMXH: 0.60,
	MarketOMXS: 0.65,
}

// rollingThreshold is the rolling threshold table (spec.md §4.5).
var rollingThreshold = map[Market]float64{
	MarketOMXH: 0.45,
	MarketOMXS: 0.47,
}

// RollingEnabled reports whether rolling scoring is enabled for market.
func RollingEnabled(m Market) bool { return rollingEnabled[m] }

// FastpassEnabled reports whether fastpass scoring is enabled for market.
func FastpassEnabled(m Market) bool { return fastpassEnabled[m] }

// RuleID returns the locked rule id for (market, mode). ok is false if the
// mode is disabled for that market (rule-id immutability — spec.md §6.5 —
// means callers must never invent one on the fly).
func RuleID(m Market, mode Mode) (string, bool) {
	switch mode {
	case ModeFastpass:
		id, ok := fastpassRuleID[m]
		return id, ok
	case ModeRolling:
		id, ok := rollingRuleID[m]
		return id, ok
	default:
		return "", false
	}
}

// Threshold returns the locked threshold for (market, mode).
func Threshold(m Market, mode Mode) (float64, bool) {
	switch mode {
	case ModeFastpass:
		t, ok := fastpassThreshold[m]
		return t, ok
	case ModeRolling:
		t, ok := rollingThreshold[m]
		return t, ok
	default:
		return 0, false
	}
}
