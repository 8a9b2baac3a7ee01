package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsReportsEverySecond(t *testing.T) {
	var s Stats
	s.Start(0)

	now := time.Duration(0)
	for i := 0; i < 99; i++ {
		now += 10 * time.Millisecond
		_, ok := s.Tick(now)
		require.False(t, ok, "frame %d", i)
	}

	now += 20 * time.Millisecond
	r, ok := s.Tick(now)
	require.True(t, ok)
	assert.InDelta(t, 100/1.01, r.FPS, 1e-6)
	assert.Equal(t, 20*time.Millisecond, r.Slowest)
	assert.Equal(t, 10100*time.Microsecond, r.Average)
	assert.Equal(t, uint64(100), s.Frames)

	// The next interval starts fresh.
	r, ok = s.Tick(now + 5*time.Millisecond)
	assert.False(t, ok)
	assert.Zero(t, r)
}
