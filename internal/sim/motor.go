package sim

import (
	"math"

	"github.com/san-kum/mechctl/internal/dynamo"
)

type mode int

const (
	modeOpenLoop mode = iota
	modeVelocity
)

// MotorConfig describes the simulated motor controller.
type MotorConfig struct {
	BusVoltage float64
	// RampRate is the time in seconds to slew from neutral to full output.
	// Zero disables ramping.
	RampRate float64
}

// Motor is a simulated smart motor controller driving a plant. It
// implements [dynamo.Actuator]; the owning loop advances it with Step.
type Motor struct {
	plant dynamo.System
	integ dynamo.Integrator
	cfg   MotorConfig
	pid   *pidf

	x dynamo.State
	t float64

	disabled bool
	mode     mode
	setpoint float64
	arbFF    float64
	demand   float64
	output   float64
	volts    float64
}

func NewMotor(plant dynamo.System, integ dynamo.Integrator, cfg MotorConfig) *Motor {
	if cfg.BusVoltage <= 0 {
		cfg.BusVoltage = 12
	}
	return &Motor{
		plant: plant,
		integ: integ,
		cfg:   cfg,
		pid:   newPIDF(),
		x:     make(dynamo.State, plant.StateDim()),
	}
}

func (m *Motor) SetClosedLoopVelocity(target, feedforwardVolts float64) {
	if m.mode != modeVelocity {
		m.pid.reset()
	}
	m.mode = modeVelocity
	m.setpoint = target
	m.arbFF = feedforwardVolts
}

func (m *Motor) SetOpenLoop(fraction float64) {
	m.mode = modeOpenLoop
	m.demand = clamp(fraction, -1, 1)
}

func (m *Motor) SetClosedLoopGains(g dynamo.Gains) {
	m.pid.gains = g
}

func (m *Motor) MeasuredVelocity() float64 {
	return m.x[0]
}

// SetEnabled implements [Gated]. Disabling cuts the output at once and
// resets the onboard loop, so the motor comes back neutral.
func (m *Motor) SetEnabled(enabled bool) {
	m.disabled = !enabled
	if m.disabled {
		m.mode = modeOpenLoop
		m.demand = 0
		m.output = 0
		m.pid.reset()
	}
}

func (m *Motor) Enabled() bool { return !m.disabled }

// Output is the applied duty cycle after ramping.
func (m *Motor) Output() float64 { return m.output }

// Voltage is the voltage applied during the last step.
func (m *Motor) Voltage() float64 { return m.volts }

// Step runs the onboard loop and integrates the plant over dt.
func (m *Motor) Step(dt float64) {
	var duty float64
	switch {
	case m.disabled:
		// Commands are held but not acted on; the onboard loop stays reset.
	case m.mode == modeVelocity:
		duty = m.pid.update(m.setpoint, m.x[0], dt) + m.arbFF/m.cfg.BusVoltage
	default:
		duty = m.demand
	}
	duty = clamp(duty, -1, 1)

	if m.cfg.RampRate > 0 && !m.disabled {
		maxStep := dt / m.cfg.RampRate
		m.output += clamp(duty-m.output, -maxStep, maxStep)
	} else {
		m.output = duty
	}
	m.volts = m.output * m.cfg.BusVoltage

	prev := m.x[0]
	next := m.integ.Step(m.plant, m.x, dynamo.Control{m.volts}, m.t, dt)

	// Friction brings the rotor to rest; only drive can reverse it.
	if prev*next[0] < 0 && m.volts*next[0] <= 0 {
		next[0] = 0
	}
	if !next.IsValid() {
		next = make(dynamo.State, len(m.x))
	}
	m.x = next
	m.t += dt
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

var (
	_ dynamo.Actuator = (*Motor)(nil)
	_ Gated           = (*Motor)(nil)
)
