package control

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// windowSize bounds how many recent tick durations feed the percentile
// calculation.
const windowSize = 256

// TickStats tracks a rolling window of tick durations and reports
// percentiles on demand (§9: "tick-duration percentiles").
type TickStats struct {
	mu      sync.Mutex
	samples []float64 // milliseconds
	total   uint64
}

func NewTickStats() *TickStats {
	return &TickStats{samples: make([]float64, 0, windowSize)}
}

// Record appends one tick's duration to the window.
func (s *TickStats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++

	ms := float64(d) / float64(time.Millisecond)

	if len(s.samples) >= windowSize {
		s.samples = s.samples[1:]
	}

	s.samples = append(s.samples, ms)
}

// Percentile reports the p-th percentile tick duration in milliseconds
// over the current window (p in [0, 100]). Returns 0 if no samples yet.
func (s *TickStats) Percentile(p float64) float64 {
	s.mu.Lock()
	samples := append([]float64(nil), s.samples...)
	s.mu.Unlock()

	if len(samples) == 0 {
		return 0
	}

	v, err := stats.Percentile(samples, p)
	if err != nil {
		return 0
	}

	return v
}

// Mean reports the mean tick duration in milliseconds over the current
// window.
func (s *TickStats) Mean() float64 {
	s.mu.Lock()
	samples := append([]float64(nil), s.samples...)
	s.mu.Unlock()

	if len(samples) == 0 {
		return 0
	}

	v, err := stats.Mean(samples)
	if err != nil {
		return 0
	}

	return v
}

// TotalTicks reports how many ticks have been recorded since creation,
// including ones that fell out of the rolling window.
func (s *TickStats) TotalTicks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}
