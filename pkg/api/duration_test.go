package api_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/signoff-io/signoff/pkg/api"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0 seconds", api.FormatDuration(0))
	assert.Equal(t, "42 seconds", api.FormatDuration(42*time.Second))
	assert.Equal(t, "5 minutes, 30 seconds",
		api.FormatDuration(5*time.Minute+30*time.Second))
	assert.Equal(t, "2 hours, 15 minutes",
		api.FormatDuration(2*time.Hour+15*time.Minute+40*time.Second))
	assert.Equal(t, "3 days, 4 hours",
		api.FormatDuration(76*time.Hour+59*time.Minute))
}

func TestFormatDurationNegativeClampsToZero(t *testing.T) {
	assert.Equal(t, "0 seconds", api.FormatDuration(-time.Minute))
}

func TestFormatDurationTruncatesSubSecond(t *testing.T) {
	assert.Equal(t, "1 seconds",
		api.FormatDuration(time.Second+500*time.Millisecond))
}
