package app

import (
	"time"
)

// statsInterval is how often frame statistics are reported.
const statsInterval = time.Second

// Stats accumulates frame times between reports. Times are whatever clock
// the caller uses; the application feeds it hrtime.Now.
type Stats struct {
	Frames uint64

	start   time.Duration
	last    time.Duration
	count   int
	slowest time.Duration
}

// Report is one interval's worth of frame statistics.
type Report struct {
	FPS     float64
	Average time.Duration
	Slowest time.Duration
}

// Start resets the interval at now.
func (s *Stats) Start(now time.Duration) {
	s.start, s.last = now, now
	s.count, s.slowest = 0, 0
}

// Tick records a frame that finished at now. Once statsInterval has passed
// since the interval started it returns the interval's report and starts a
// new one.
func (s *Stats) Tick(now time.Duration) (Report, bool) {
	s.Frames++
	s.count++
	if frame := now - s.last; frame > s.slowest {
		s.slowest = frame
	}
	s.last = now

	elapsed := now - s.start
	if elapsed < statsInterval {
		return Report{}, false
	}
	r := Report{
		FPS:     float64(s.count) / elapsed.Seconds(),
		Average: elapsed / time.Duration(s.count),
		Slowest: s.slowest,
	}
	s.Start(now)
	return r, true
}
