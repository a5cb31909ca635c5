package signals

// Config holds the provider defaults from spec.md §4.1, passed as an
// explicit immutable struct per spec.md §9 ("configuration passes as
// explicit immutable structs; defaults are centralized constants").
type Config struct {
	SMAWindow           int // sma_window, default 20
	MomentumLookback    int // momentum_lookback, default 1
	ATRWindow           int // atr_window, default 14
	StabilizationDays   int // stabilization_days, default 5
	EntrySMAWindow      int // entry_sma_window, default 5
	InvalidationLookback int // invalidation_lookback, default 10
	DowWindow           int // dow_window, default 3
	SafetyMarginRows    int // SAFETY_MARGIN_ROWS, default 2

	SMALen        int // SMA_LEN, default 20
	SlopeLookback int // SLOPE_LOOKBACK, default 5
	RegimeWindow  int // REGIME_WINDOW, default 30
	AboveRatioMin float64 // ABOVE_RATIO_MIN, default 0.70
	BreakLowWindow int    // BREAK_LOW_WINDOW, default 10
	DebounceDays   int    // DEBOUNCE_DAYS, default 5

	RequireRowOnDate bool
}

// DefaultConfig returns the provider defaults enumerated in spec.md §4.1.
func DefaultConfig() Config {
	return Config{
		SMAWindow:            20,
		MomentumLookback:     1,
		ATRWindow:            14,
		StabilizationDays:    5,
		EntrySMAWindow:       5,
		InvalidationLookback: 10,
		DowWindow:            3,
		SafetyMarginRows:     2,

		SMALen:         20,
		SlopeLookback:  5,
		RegimeWindow:   30,
		AboveRatioMin:  0.70,
		BreakLowWindow: 10,
		DebounceDays:   5,

		RequireRowOnDate: false,
	}
}

// RequiredRows computes the provider's required-rows precondition formula
// from spec.md §4.1, verbatim.
func (c Config) RequiredRows() int {
	max := func(vals ...int) int {
		m := vals[0]
		for _, v := range vals[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}
	return max(
		c.SMAWindow+c.MomentumLookback,
		c.SMAWindow+5,
		c.ATRWindow+1,
		max(c.StabilizationDays+1, c.EntrySMAWindow),
		c.InvalidationLookback+1,
		2*c.DowWindow+1,
		c.SMALen+c.RegimeWindow-1,
		c.SMALen+c.SlopeLookback,
		c.BreakLowWindow+1,
	) + c.SafetyMarginRows
}
