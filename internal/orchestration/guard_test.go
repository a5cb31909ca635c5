package orchestration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kalletarpila/swingmaster/internal/swerrors"
)

func TestCheckVersionCompatibility_BothV3_Allowed(t *testing.T) {
	assert.NoError(t, CheckVersionCompatibility("v3", "v3"))
}

func TestCheckVersionCompatibility_BothNonV3_Allowed(t *testing.T) {
	assert.NoError(t, CheckVersionCompatibility("v1", "v1"))
	assert.NoError(t, CheckVersionCompatibility("v2", "v2"))
	assert.NoError(t, CheckVersionCompatibility("", ""))
}

func TestCheckVersionCompatibility_Mixed_Rejected(t *testing.T) {
	err := CheckVersionCompatibility("v3", "v2")
	if assert.Error(t, err) {
		kind, ok := swerrors.KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, swerrors.IncompatibleVersions, kind)
		assert.Contains(t, err.Error(), "Incompatible versions: signal-version and policy-version must both be v3, or both non-v3.")
	}

	err = CheckVersionCompatibility("v2", "v3")
	assert.Error(t, err)
}
