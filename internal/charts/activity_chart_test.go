package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whale-tracker/internal/store"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderHourlyActivity(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)
	counts := []store.HourlyCount{
		{Hour: now.Truncate(time.Hour).Add(-3 * time.Hour), Count: 12},
		{Hour: now.Truncate(time.Hour).Add(-1 * time.Hour), Count: 4},
		{Hour: now.Truncate(time.Hour), Count: 7},
	}

	png, err := RenderHourlyActivity(counts, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestRenderHourlyActivityEmpty(t *testing.T) {
	png, err := RenderHourlyActivity(nil, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}
