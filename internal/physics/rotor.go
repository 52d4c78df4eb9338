package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/mechctl/internal/dynamo"
	"github.com/san-kum/mechctl/internal/units"
)

// Rotor is a motor driving a spinning mass, described by the same
// characterization constants a feedforward model uses:
//
//	V = Ks*sign(w) + Kv*w + Ka*dw/dt
//
// State is [w] in motor units, control is [volts].
type Rotor struct {
	Ks float64
	Kv float64
	Ka float64
}

func NewRotor(ks, kv, ka float64) *Rotor {
	return &Rotor{Ks: ks, Kv: kv, Ka: ka}
}

// NewGearedRotor takes constants characterized in mechanism units and
// re-expresses them per motor shaft rate.
func NewGearedRotor(ks, kv, ka float64, g units.GearRatio) *Rotor {
	return NewRotor(ks, kv*g.OutputsPerInput(), ka*g.OutputsPerInput())
}

func (r *Rotor) StateDim() int {
	return 1
}

func (r *Rotor) ControlDim() int {
	return 1
}

func (r *Rotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	omega := x[0]

	volts := 0.0
	if len(u) > 0 {
		volts = u[0]
	}

	// Stiction holds the rotor until the drive beats static friction.
	if omega == 0 && math.Abs(volts) <= r.Ks {
		return dynamo.State{0}
	}

	friction := 0.0
	if omega != 0 {
		friction = math.Copysign(r.Ks, omega)
	} else {
		friction = math.Copysign(r.Ks, volts)
	}

	alpha := (volts - friction - r.Kv*omega) / r.Ka
	return dynamo.State{alpha}
}

// SteadyVelocity is the rate the rotor settles at under constant voltage.
func (r *Rotor) SteadyVelocity(volts float64) float64 {
	if math.Abs(volts) <= r.Ks {
		return 0
	}
	return (volts - math.Copysign(r.Ks, volts)) / r.Kv
}

func (r *Rotor) GetParams() map[string]float64 {
	return map[string]float64{
		"ks": r.Ks,
		"kv": r.Kv,
		"ka": r.Ka,
	}
}

func (r *Rotor) SetParam(name string, value float64) error {
	switch name {
	case "ks":
		r.Ks = value
	case "kv":
		r.Kv = value
	case "ka":
		r.Ka = value
	default:
		return fmt.Errorf("unknown param: %s: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
