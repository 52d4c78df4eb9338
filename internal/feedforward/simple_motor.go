// Package feedforward models the open-loop voltage a permanent magnet DC
// motor needs to hold a velocity and acceleration.
package feedforward

import (
	"fmt"
	"math"

	"github.com/san-kum/mechctl/internal/dynamo"
)

// SimpleMotor is the characterized motor model
//
//	V = Ks*sign(v) + Kv*v + Ka*a
//
// Units of Kv and Ka follow whatever velocity unit the caller characterized in.
type SimpleMotor struct {
	Ks float64 // volts
	Kv float64 // volts per unit velocity
	Ka float64 // volts per unit acceleration
}

func NewSimpleMotor(ks, kv, ka float64) (SimpleMotor, error) {
	if !dynamo.Finite(ks, kv, ka) {
		return SimpleMotor{}, fmt.Errorf("feedforward (%v, %v, %v): %w", ks, kv, ka, dynamo.ErrNonFinite)
	}
	return SimpleMotor{Ks: ks, Kv: kv, Ka: ka}, nil
}

// Calculate returns the feedforward voltage. The static term is dropped at
// zero velocity so the output does not chatter at rest.
func (m SimpleMotor) Calculate(velocity, acceleration float64) float64 {
	static := 0.0
	if velocity != 0 {
		static = math.Copysign(m.Ks, velocity)
	}
	return static + m.Kv*velocity + m.Ka*acceleration
}

// MaxVelocity is the steady velocity reachable at the given voltage.
func (m SimpleMotor) MaxVelocity(volts float64) float64 {
	if m.Kv == 0 {
		return math.Inf(1)
	}
	return (volts - m.Ks) / m.Kv
}
