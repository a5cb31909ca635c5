package ewscore

import "math"

// sigmoid maps a raw linear score onto the open interval (0, 1), the
// standard squashing function for a logistic scoring model (beta0/beta1
// coefficients, as named in the audit-inputs contract below).
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// FastpassInputs is the feature set a fastpass evaluation is computed
// from, captured at entry-window open.
type FastpassInputs struct {
	Market             Market
	EntryDate          string
	LastStabDate       string
	CloseEntry         float64
	CloseLastStab      float64
	CategoricalFeatures map[string]float64 // name -> weighted contribution
	Beta0              float64
	RowsTotal          int
}

// FastpassResult is the score, level, and audit payload for one fastpass
// evaluation.
type FastpassResult struct {
	RuleID     string
	Score      float64
	Level      int
	InputsJSON map[string]any
}

// ComputeFastpass implements the fastpass mode (spec.md §4.5): a logistic
// combination of beta0 and the categorical model inputs. The
// stabilization-to-entry return is recorded in the audit payload only; it
// does not enter the score.
func ComputeFastpass(in FastpassInputs) (FastpassResult, bool) {
	ruleID, ok := RuleID(in.Market, ModeFastpass)
	if !ok {
		return FastpassResult{}, false
	}
	threshold, ok := Threshold(in.Market, ModeFastpass)
	if !ok {
		return FastpassResult{}, false
	}

	rStabToEntryPct := 0.0
	if in.CloseLastStab != 0 {
		rStabToEntryPct = in.CloseEntry/in.CloseLastStab - 1
	}

	rawZ := in.Beta0
	for _, contribution := range in.CategoricalFeatures {
		rawZ += contribution
	}
	score := sigmoid(rawZ)
	level := Level(score, in.RowsTotal, threshold)

	inputsJSON := map[string]any{
		"rule_id":              ruleID,
		"beta0":                in.Beta0,
		"threshold":            threshold,
		"entry_date":           in.EntryDate,
		"last_stab_date":       in.LastStabDate,
		"close_entry":          in.CloseEntry,
		"close_last_stab":      in.CloseLastStab,
		"r_stab_to_entry_pct":  rStabToEntryPct,
		"rows_total":           in.RowsTotal,
		"score_raw_z":          rawZ,
	}
	for name, contribution := range in.CategoricalFeatures {
		inputsJSON[name] = contribution
	}

	return FastpassResult{RuleID: ruleID, Score: score, Level: level, InputsJSON: inputsJSON}, true
}
