// Package timegrid provides the deterministic sampling grid shared by the
// geometry sampler and the merge stage. The analyzer is a finite batch
// computation, so simulation time is a fixed grid of instants rather than
// a live ticker: every component that needs "the same instants" derives
// them from one Grid value.
package timegrid

import (
	"fmt"
	"time"
)

// Grid is a half-open, evenly spaced sequence of time instants:
// Start, Start+Step, ..., Start+(Steps-1)*Step.
type Grid struct {
	Start time.Time
	Step  time.Duration
	Steps int
}

// New validates and constructs a grid.
func New(start time.Time, step time.Duration, steps int) (Grid, error) {
	if start.IsZero() {
		return Grid{}, fmt.Errorf("timegrid: start must be set")
	}
	if step <= 0 {
		return Grid{}, fmt.Errorf("timegrid: step must be positive, got %v", step)
	}
	if steps <= 0 {
		return Grid{}, fmt.Errorf("timegrid: steps must be positive, got %d", steps)
	}
	return Grid{Start: start.UTC(), Step: step, Steps: steps}, nil
}

// FromDuration constructs a grid covering [start, start+total] inclusive of
// the final instant when total is an exact multiple of step.
func FromDuration(start time.Time, step, total time.Duration) (Grid, error) {
	if step <= 0 {
		return Grid{}, fmt.Errorf("timegrid: step must be positive, got %v", step)
	}
	if total < step {
		return Grid{}, fmt.Errorf("timegrid: duration %v shorter than step %v", total, step)
	}
	return New(start, step, int(total/step)+1)
}

// At returns the instant at index i. Panics on out-of-range indices the
// same way a slice would.
func (g Grid) At(i int) time.Time {
	if i < 0 || i >= g.Steps {
		panic(fmt.Sprintf("timegrid: index %d out of range [0, %d)", i, g.Steps))
	}
	return g.Start.Add(time.Duration(i) * g.Step)
}

// End returns the final instant of the grid.
func (g Grid) End() time.Time {
	return g.At(g.Steps - 1)
}

// Times materializes every instant in order.
func (g Grid) Times() []time.Time {
	out := make([]time.Time, g.Steps)
	for i := range out {
		out[i] = g.Start.Add(time.Duration(i) * g.Step)
	}
	return out
}

// Index returns the grid index of t and whether t lies exactly on the grid.
func (g Grid) Index(t time.Time) (int, bool) {
	d := t.Sub(g.Start)
	if d < 0 || d%g.Step != 0 {
		return 0, false
	}
	i := int(d / g.Step)
	if i >= g.Steps {
		return 0, false
	}
	return i, true
}
