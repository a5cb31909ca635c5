package ewscore

// RollingInputs is the feature set a rolling evaluation is recomputed
// from daily, using the prefix return since entry-window open.
type RollingInputs struct {
	Market     Market
	EntryDate  string
	AsOfDate   string
	CloseDay0  float64
	CloseToday float64
	Beta0      float64
	Beta1      float64
	RowsTotal  int
}

// RollingResult is the score, level, and audit payload for one rolling
// evaluation.
type RollingResult struct {
	RuleID     string
	Score      float64
	Level      int
	InputsJSON map[string]any
}

// ComputeRolling implements the rolling mode (spec.md §4.5): recomputed
// daily from the prefix return between entry-window open and today.
func ComputeRolling(in RollingInputs) (RollingResult, bool) {
	ruleID, ok := RuleID(in.Market, ModeRolling)
	if !ok {
		return RollingResult{}, false
	}
	threshold, ok := Threshold(in.Market, ModeRolling)
	if !ok {
		return RollingResult{}, false
	}

	rPrefixPct := 0.0
	if in.CloseDay0 != 0 {
		rPrefixPct = in.CloseToday/in.CloseDay0 - 1
	}

	rawZ := in.Beta0 + in.Beta1*rPrefixPct
	score := sigmoid(rawZ)
	level := Level(score, in.RowsTotal, threshold)

	inputsJSON := map[string]any{
		"rule_id":       ruleID,
		"beta0":         in.Beta0,
		"beta1":         in.Beta1,
		"threshold":     threshold,
		"entry_date":    in.EntryDate,
		"as_of_date":    in.AsOfDate,
		"close_day0":    in.CloseDay0,
		"close_today":   in.CloseToday,
		"r_prefix_pct":  rPrefixPct,
		"rows_total":    in.RowsTotal,
		"score_raw_z":   rawZ,
	}

	return RollingResult{RuleID: ruleID, Score: score, Level: level, InputsJSON: inputsJSON}, true
}
