package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	t.Setenv("FLAG_LEGACY_INTERVAL_FALLBACK", "Yes")
	t.Setenv("FLAG_DUE_SWEEPER", "0")

	assert.True(t, Enabled(LegacyIntervalFallback))
	assert.False(t, Enabled(DueSweeper))
	assert.False(t, Enabled("never_set"))
}
