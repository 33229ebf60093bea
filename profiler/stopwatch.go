// Package profiler - Stage timing for a single pipeline run.
package profiler

import (
	"log/slog"
	"sync"
	"time"
)

// Stage is the measured duration of one named operation.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Stopwatch records the duration of named operations in the order they finish.
// A name recorded twice accumulates.
type Stopwatch struct {
	mu     sync.Mutex
	now    func() time.Time
	stages []Stage
	index  map[string]int
}

// NewStopwatch creates an empty stopwatch.
func NewStopwatch() *Stopwatch {
	return newStopwatch(time.Now)
}

func newStopwatch(now func() time.Time) *Stopwatch {
	return &Stopwatch{now: now, index: make(map[string]int)}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - func() time.Duration: Stops the timer, records and returns the duration.
func (s *Stopwatch) StartOperation(name string) func() time.Duration {
	start := s.now()
	return func() time.Duration {
		d := s.now().Sub(start)
		s.Record(name, d)
		return d
	}
}

// Record adds d to the named stage.
func (s *Stopwatch) Record(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[name]; ok {
		s.stages[i].Duration += d
		return
	}
	s.index[name] = len(s.stages)
	s.stages = append(s.stages, Stage{Name: name, Duration: d})
}

// Stages returns a copy of the recorded stages.
func (s *Stopwatch) Stages() []Stage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Stage(nil), s.stages...)
}

// Total returns the sum of all stages.
func (s *Stopwatch) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total time.Duration
	for _, st := range s.stages {
		total += st.Duration
	}
	return total
}

// Reset clears all stages.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stages = nil
	s.index = make(map[string]int)
}

// LogValue renders the stages as a group of millisecond values.
func (s *Stopwatch) LogValue() slog.Value {
	stages := s.Stages()
	attrs := make([]slog.Attr, 0, len(stages)+1)
	var total time.Duration
	for _, st := range stages {
		attrs = append(attrs, slog.Float64(st.Name+"_ms", Milliseconds(st.Duration)))
		total += st.Duration
	}
	attrs = append(attrs, slog.Float64("total_ms", Milliseconds(total)))
	return slog.GroupValue(attrs...)
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
