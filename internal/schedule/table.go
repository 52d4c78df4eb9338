// Package schedule maps a continuous input such as shot distance onto a
// target velocity through a piecewise linear breakpoint table.
package schedule

import (
	"fmt"

	"github.com/san-kum/mechctl/internal/dynamo"
	"gonum.org/v1/gonum/interp"
)

// Breakpoint is one (input, output) pair of a Table.
type Breakpoint struct {
	Distance float64 `yaml:"distance"`
	Velocity float64 `yaml:"velocity"`
}

// Table is an immutable interpolation table. Inputs outside the table are
// clamped to the edge values; the table never extrapolates.
type Table struct {
	xs, ys []float64
	pl     interp.PiecewiseLinear
}

// New validates and fits the breakpoints. Distances must be strictly
// increasing and there must be at least two of them.
func New(points []Breakpoint) (*Table, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%d breakpoints: %w", len(points), dynamo.ErrTableTooShort)
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		if !dynamo.Finite(p.Distance, p.Velocity) {
			return nil, fmt.Errorf("breakpoint %d (%v, %v): %w", i, p.Distance, p.Velocity, dynamo.ErrNonFinite)
		}
		if i > 0 && p.Distance <= xs[i-1] {
			return nil, fmt.Errorf("breakpoint %d distance %v after %v: %w", i, p.Distance, xs[i-1], dynamo.ErrTableOrder)
		}
		xs[i], ys[i] = p.Distance, p.Velocity
	}

	t := &Table{xs: xs, ys: ys}
	if err := t.pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return t, nil
}

// FromSlices pairs distances with velocities.
func FromSlices(distances, velocities []float64) (*Table, error) {
	if len(distances) != len(velocities) {
		return nil, fmt.Errorf("%d distances for %d velocities: %w", len(distances), len(velocities), dynamo.ErrTableTooShort)
	}
	points := make([]Breakpoint, len(distances))
	for i := range distances {
		points[i] = Breakpoint{Distance: distances[i], Velocity: velocities[i]}
	}
	return New(points)
}

// Interpolate returns the target velocity for x.
func (t *Table) Interpolate(x float64) float64 {
	n := len(t.xs)
	if x <= t.xs[0] {
		return t.ys[0]
	}
	if x >= t.xs[n-1] {
		return t.ys[n-1]
	}
	return t.pl.Predict(x)
}

func (t *Table) Len() int { return len(t.xs) }

// Range returns the first and last distances.
func (t *Table) Range() (lo, hi float64) {
	return t.xs[0], t.xs[len(t.xs)-1]
}

// Breakpoints returns a copy of the table contents.
func (t *Table) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(t.xs))
	for i := range t.xs {
		out[i] = Breakpoint{Distance: t.xs[i], Velocity: t.ys[i]}
	}
	return out
}
