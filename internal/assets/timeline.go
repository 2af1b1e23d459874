package assets

import "fmt"

// DefaultDecades are the decades covered by the bundled image set
var DefaultDecades = []string{"1980", "1990", "2000", "2010", "2020"}

// DefaultInterpolationSteps is the number of sub-frames between two decades
const DefaultInterpolationSteps = 5

// Timeline is the ordered, circular list of playback steps
type Timeline struct {
	steps   []Step
	decades []string
}

// NewTimeline builds a timeline with `between` interpolated steps after every
// decade except the last one.
func NewTimeline(decades []string, between int) (*Timeline, error) {
	if len(decades) == 0 {
		return nil, fmt.Errorf("timeline needs at least one decade")
	}
	if between < 0 {
		return nil, fmt.Errorf("interpolation steps must not be negative, got %d", between)
	}

	steps := make([]Step, 0, len(decades)+(len(decades)-1)*between)
	for i, decade := range decades {
		steps = append(steps, Step{Decade: decade})
		if i == len(decades)-1 {
			break
		}
		for n := 1; n <= between; n++ {
			steps = append(steps, Step{Decade: decade, Interpolation: n})
		}
	}

	return &Timeline{
		steps:   steps,
		decades: append([]string(nil), decades...),
	}, nil
}

// Len returns the number of steps
func (t *Timeline) Len() int {
	return len(t.steps)
}

// Wrap maps any integer onto a valid index, wrapping in both directions
func (t *Timeline) Wrap(i int) int {
	n := len(t.steps)
	return ((i % n) + n) % n
}

// At returns the step at index i, wrapping circularly
func (t *Timeline) At(i int) Step {
	return t.steps[t.Wrap(i)]
}

// Index returns the position of a step, or -1 when absent
func (t *Timeline) Index(step Step) int {
	for i, s := range t.steps {
		if s == step {
			return i
		}
	}
	return -1
}

// First returns the first decade of the range
func (t *Timeline) First() Step {
	return Step{Decade: t.decades[0]}
}

// Decades returns a copy of the decade labels
func (t *Timeline) Decades() []string {
	return append([]string(nil), t.decades...)
}

// Steps returns a copy of all steps in order
func (t *Timeline) Steps() []Step {
	return append([]Step(nil), t.steps...)
}
