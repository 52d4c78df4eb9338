package control

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/mechctl/internal/dynamo"
	"github.com/san-kum/mechctl/internal/feedforward"
	"github.com/san-kum/mechctl/internal/schedule"
	"github.com/san-kum/mechctl/internal/units"
)

// VelocityConfig is the static configuration of a velocity controller.
type VelocityConfig struct {
	Name        string
	Gear        units.GearRatio
	Feedforward feedforward.SimpleMotor
	// Tolerance is the allowed deviation as a fraction of the setpoint.
	Tolerance float64
	Table     *schedule.Table
	Logger    *log.Logger
}

// Velocity drives a spin-up mechanism such as a flywheel to a commanded
// velocity. Velocities are in mechanism units unless noted otherwise.
type Velocity struct {
	name      string
	motor     dynamo.Actuator
	gains     dynamo.GainSource
	sink      dynamo.TelemetrySink
	gear      units.GearRatio
	ff        feedforward.SimpleMotor
	tolerance float64
	table     *schedule.Table
	log       *log.Logger

	active       bool
	desired      float64
	measured     float64
	acceleration float64
	feedforward  float64
	atSetpoint   bool
}

// NewVelocity validates cfg and pushes the current gains to the motor.
// A nil sink discards telemetry.
func NewVelocity(cfg VelocityConfig, motor dynamo.Actuator, gains dynamo.GainSource, sink dynamo.TelemetrySink) (*Velocity, error) {
	if cfg.Gear == (units.GearRatio{}) {
		return nil, &dynamo.ConfigError{Field: "gear", Wrapped: dynamo.ErrGearRatio}
	}
	if cfg.Tolerance < 0 || !dynamo.Finite(cfg.Tolerance) {
		return nil, &dynamo.ConfigError{Field: "tolerance", Wrapped: fmt.Errorf("%v: %w", cfg.Tolerance, dynamo.ErrTolerance)}
	}
	if cfg.Table == nil {
		return nil, &dynamo.ConfigError{Field: "table", Wrapped: dynamo.ErrNoTable}
	}
	if motor == nil {
		return nil, &dynamo.ConfigError{Field: "motor", Wrapped: dynamo.ErrNoMotor}
	}
	if gains == nil {
		gains = NewTunables(dynamo.Gains{})
	}
	if sink == nil {
		sink = discard{}
	}
	name := cfg.Name
	if name == "" {
		name = "velocity"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	v := &Velocity{
		name:      name,
		motor:     motor,
		gains:     gains,
		sink:      sink,
		gear:      cfg.Gear,
		ff:        cfg.Feedforward,
		tolerance: cfg.Tolerance,
		table:     cfg.Table,
		log:       logger.WithPrefix(name),
	}
	v.pushGains()
	return v, nil
}

func (v *Velocity) Name() string { return v.name }

// SetVelocity spins the mechanism up to vel.
func (v *Velocity) SetVelocity(vel float64) {
	if !v.active {
		v.log.Debug("spin up", "velocity", vel)
	}
	v.active = true
	v.desired = vel
}

// SetDistance schedules the velocity for a target at distance d.
func (v *Velocity) SetDistance(d float64) {
	v.SetVelocity(v.table.Interpolate(d))
}

// Stop idles the mechanism. Safe to call repeatedly.
func (v *Velocity) Stop() {
	if v.active {
		v.log.Debug("stop")
	}
	v.active = false
	v.desired = 0
}

// OnEnable re-reads the gains and pushes them to the motor.
func (v *Velocity) OnEnable() {
	v.pushGains()
}

func (v *Velocity) OnDisable() {
	v.Stop()
}

// Tick samples the sensor, recomputes feedforward and issues the command.
// It runs every period whether or not the controller is active.
func (v *Velocity) Tick() {
	v.measured = v.gear.ToExternal(v.motor.MeasuredVelocity())

	// One step difference against the last measurement, not a true acceleration.
	v.acceleration = v.desired - v.measured
	v.feedforward = v.ff.Calculate(v.desired, v.acceleration)

	if v.active {
		v.motor.SetClosedLoopVelocity(v.gear.ToInternal(v.desired), v.feedforward)
	} else {
		v.motor.SetOpenLoop(0)
	}

	v.atSetpoint = v.within(v.measured)
	v.publish()
}

// IsAtSetpoint compares the live sensor reading against the setpoint. A zero
// setpoint has a zero width band, so only an exactly stopped mechanism counts.
func (v *Velocity) IsAtSetpoint() bool {
	return v.within(v.gear.ToExternal(v.motor.MeasuredVelocity()))
}

// IsReady reports whether the mechanism may be fed.
func (v *Velocity) IsReady() bool {
	return v.IsAtSetpoint()
}

func (v *Velocity) IsActive() bool               { return v.active }
func (v *Velocity) Desired() float64             { return v.desired }
func (v *Velocity) Measured() float64            { return v.measured }
func (v *Velocity) DesiredAcceleration() float64 { return v.acceleration }
func (v *Velocity) Feedforward() float64         { return v.feedforward }

func (v *Velocity) within(measured float64) bool {
	return math.Abs(v.desired-measured) <= v.desired*v.tolerance
}

func (v *Velocity) pushGains() {
	g := v.gains.Gains()
	v.motor.SetClosedLoopGains(g)
	v.log.Debug("gains pushed", "p", g.P, "i", g.I, "d", g.D, "f", g.F, "izone", g.IZone)
}

func (v *Velocity) publish() {
	v.sink.PutNumber("desired_rpm", v.desired)
	v.sink.PutNumber("desired_accel", v.acceleration)
	v.sink.PutNumber("feedforward", v.feedforward)
	v.sink.PutNumber("actual_rpm", v.measured)
	v.sink.PutNumber("at_setpoint", boolToFloat(v.atSetpoint))
}

type discard struct{}

func (discard) PutNumber(string, float64) {}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ dynamo.Component = (*Velocity)(nil)
