// Package shaping reshapes normalized joystick input before it reaches an
// actuator. Both curves map [-1, 1] onto [-1, 1] and preserve sign.
package shaping

import (
	"fmt"
	"math"

	"github.com/san-kum/mechctl/internal/dynamo"
)

// Curve is implemented by [Piecewise] and [Exponential] only.
type Curve interface {
	Value(signal float64) float64
	isCurve()
}

// Params selects and configures a curve.
type Params struct {
	Kind     string  `yaml:"kind"`
	Slow     float64 `yaml:"slow"`
	Fast     float64 `yaml:"fast"`
	Exponent float64 `yaml:"exponent"`
}

const (
	KindPiecewise   = "piecewise"
	KindExponential = "exponential"
)

func New(p Params) (Curve, error) {
	switch p.Kind {
	case KindPiecewise:
		c, err := NewPiecewise(p.Slow, p.Fast)
		if err != nil {
			return nil, err
		}
		return c, nil
	case KindExponential:
		c, err := NewExponential(p.Exponent)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%q: %w", p.Kind, dynamo.ErrUnknownCurve)
	}
}

// Piecewise has a low gain region near zero for fine control and a high gain
// region near full deflection. The two segments meet at Intersection.
type Piecewise struct {
	slow, fast   float64
	intersection float64
}

func NewPiecewise(slow, fast float64) (*Piecewise, error) {
	if !dynamo.Finite(slow, fast) {
		return nil, fmt.Errorf("piecewise (%v, %v): %w", slow, fast, dynamo.ErrNonFinite)
	}
	if slow == fast {
		return nil, fmt.Errorf("piecewise (%v, %v): %w", slow, fast, dynamo.ErrCurveSlopes)
	}
	return &Piecewise{
		slow:         slow,
		fast:         fast,
		intersection: (1 - fast) / (slow - fast),
	}, nil
}

func (p *Piecewise) Intersection() float64 { return p.intersection }

func (p *Piecewise) Value(signal float64) float64 {
	s, mag := sign(signal), math.Abs(signal)
	if mag <= p.intersection {
		return s * mag * p.slow
	}
	return s * (mag*p.fast + (1 - p.fast))
}

func (*Piecewise) isCurve() {}

// Exponential raises the magnitude to Exponent and reapplies the sign.
type Exponential struct {
	exponent float64
}

func NewExponential(exponent float64) (*Exponential, error) {
	if !dynamo.Finite(exponent) {
		return nil, fmt.Errorf("exponential %v: %w", exponent, dynamo.ErrNonFinite)
	}
	if exponent <= 0 {
		return nil, fmt.Errorf("exponential %v: %w", exponent, dynamo.ErrCurveExponent)
	}
	return &Exponential{exponent: exponent}, nil
}

func (e *Exponential) Value(signal float64) float64 {
	return sign(signal) * math.Pow(math.Abs(signal), e.exponent)
}

func (*Exponential) isCurve() {}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Sample evaluates c at n evenly spaced points over [-1, 1].
func Sample(c Curve, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := 2.0 / float64(n-1)
	for i := range xs {
		xs[i] = -1 + float64(i)*step
		ys[i] = c.Value(xs[i])
	}
	return xs, ys
}
