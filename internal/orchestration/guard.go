// Package orchestration wires the pure domain packages (signals, policy,
// ewscore) to the external collaborators spec.md leaves unspecified (the
// OHLC source, the persistence layer): one (ticker, as_of_date) evaluation
// at a time in engine.go, fanned out across a ticker universe and ordered
// ascending by date in rangerunner.go. Grounded on
// internal/application/pipeline.go's orchestrator-wires-collaborators shape
// and cmd/cryptorun/main.go's range-command version-guard placement.
package orchestration

import "github.com/kalletarpila/swingmaster/internal/swerrors"

// versionV3 is the only recognized "v3" token; anything else is "non-v3"
// for the purposes of the compatibility guard (spec.md §6.4).
const versionV3 = "v3"

// CheckVersionCompatibility enforces spec.md §6.4: a range-universe run is
// only allowed to mix the full v3 signal/policy stack, or the pre-v3 base
// stack, never a partial mix. It must run before any storage interaction.
func CheckVersionCompatibility(signalVersion, policyVersion string) error {
	signalIsV3 := signalVersion == versionV3
	policyIsV3 := policyVersion == versionV3
	if signalIsV3 != policyIsV3 {
		return swerrors.New(swerrors.IncompatibleVersions,
			"Incompatible versions: signal-version and policy-version must both be v3, or both non-v3.")
	}
	return nil
}
