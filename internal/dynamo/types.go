package dynamo

import (
	"math"
)

// Gains is the closed-loop coefficient set pushed to a smart motor
// controller. IZone of zero disables the integral zone.
type Gains struct {
	P     float64 `yaml:"p"`
	I     float64 `yaml:"i"`
	D     float64 `yaml:"d"`
	F     float64 `yaml:"f"`
	IZone float64 `yaml:"izone"`
}

// Actuator is a motor controller with an onboard velocity loop.
// Velocities are in the controller's native (pre-gearing) units.
type Actuator interface {
	SetClosedLoopVelocity(target, feedforwardVolts float64)
	SetOpenLoop(fraction float64)
	SetClosedLoopGains(g Gains)
	MeasuredVelocity() float64
}

// TelemetrySink receives named values once per tick. Fire and forget.
type TelemetrySink interface {
	PutNumber(key string, value float64)
}

// GainSource exposes live tunable gains.
type GainSource interface {
	Gains() Gains
}

// Component is driven by the outer control loop.
type Component interface {
	OnEnable()
	OnDisable()
	Tick()
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

// System is a plant integrated by the simulator.
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(vals ...float64) bool {
	return State(vals).IsValid()
}
