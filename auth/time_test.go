package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinmarchese/login-example/auth"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	within, err := auth.IsWithinThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.True(t, within)

	old := time.Now().Add(-48 * time.Hour)
	within, err = auth.IsWithinThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.False(t, within)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	outside, err := auth.IsOutsideThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.True(t, outside)
}

func TestThresholdPeriodRejectsBadPattern(t *testing.T) {
	_, err := auth.IsWithinThresholdPeriod(time.Now(), "one day")
	assert.Error(t, err)
}
