// Package experiment assembles the flywheel and winch against simulated
// hardware from a configuration and runs scripted operator commands.
package experiment

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/mechctl/internal/config"
	"github.com/san-kum/mechctl/internal/control"
	"github.com/san-kum/mechctl/internal/integrators"
	"github.com/san-kum/mechctl/internal/metrics"
	"github.com/san-kum/mechctl/internal/physics"
	"github.com/san-kum/mechctl/internal/schedule"
	"github.com/san-kum/mechctl/internal/shaping"
	"github.com/san-kum/mechctl/internal/sim"
	"github.com/san-kum/mechctl/internal/telemetry"
)

const (
	FlywheelName = "flywheel"
	WinchName    = "winch"
)

type Experiment struct {
	cfg *config.Config
	log *log.Logger

	Loop          *sim.Loop
	Telemetry     *telemetry.Table
	Tunables      *control.Tunables
	Table         *schedule.Table
	Curve         shaping.Curve
	Flywheel      *control.Velocity
	FlywheelMotor *sim.Motor
	Winch         *control.Winch
	WinchMotor    *sim.Motor

	script *script
}

// New validates cfg and wires every component to its simulated motor.
func New(cfg *config.Config, logger *log.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	gear, _ := cfg.Gear()
	ff, _ := cfg.Feedforward()
	table, _ := cfg.SetpointTable()
	curve, _ := cfg.Curve()

	flyInteg, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	winchInteg, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:       cfg,
		log:       logger,
		Telemetry: telemetry.NewTable(),
		Tunables:  control.NewTunables(cfg.Flywheel.Gains),
		Table:     table,
		Curve:     curve,
	}

	p := cfg.Flywheel.Plant
	e.FlywheelMotor = sim.NewMotor(
		physics.NewGearedRotor(p.Ks, p.Kv, p.Ka, gear),
		flyInteg,
		sim.MotorConfig(cfg.Flywheel.Motor),
	)
	e.Flywheel, err = control.NewVelocity(control.VelocityConfig{
		Name:        FlywheelName,
		Gear:        gear,
		Feedforward: ff,
		Tolerance:   cfg.Flywheel.Tolerance,
		Table:       table,
		Logger:      logger,
	}, e.FlywheelMotor, e.Tunables, e.Telemetry.Sub(telemetry.ComponentPrefix(FlywheelName)))
	if err != nil {
		return nil, err
	}

	wp := cfg.Winch.Plant
	e.WinchMotor = sim.NewMotor(
		physics.NewRotor(wp.Ks, wp.Kv, wp.Ka),
		winchInteg,
		sim.MotorConfig(cfg.Winch.Motor),
	)
	e.Winch, err = control.NewWinch(cfg.Winch.HoistSpeed, e.WinchMotor, e.Telemetry.Sub(telemetry.ComponentPrefix(WinchName)), logger)
	if err != nil {
		return nil, err
	}

	e.Loop, err = sim.NewLoop(cfg.Period, e.Telemetry, logger)
	if err != nil {
		return nil, err
	}
	e.script = &script{e: e}
	e.Loop.Add(e.script)
	e.Loop.Add(e.Flywheel)
	e.Loop.Add(e.Winch)
	e.Loop.AddPlant(e.FlywheelMotor)
	e.Loop.AddPlant(e.WinchMotor)
	e.Loop.AddObserver(telemetry.NewLogger(logger, int(0.5/cfg.Period),
		telemetry.Key(FlywheelName, "desired_rpm"),
		telemetry.Key(FlywheelName, "actual_rpm"),
		telemetry.Key(FlywheelName, "feedforward"),
	))
	for _, m := range metrics.Defaults(FlywheelName) {
		e.Loop.AddMetric(m)
	}

	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Run schedules cmds and runs the loop for the configured duration.
func (e *Experiment) Run(ctx context.Context, cmds []Command) (*sim.Result, error) {
	if err := e.script.load(cmds); err != nil {
		return nil, err
	}
	e.log.Info("running", "duration", e.cfg.Duration, "period", e.cfg.Period, "commands", len(cmds))
	return e.Loop.Run(ctx, e.cfg.Duration)
}

// Apply executes one command immediately.
func (e *Experiment) Apply(c Command) error {
	switch c.Kind {
	case CmdVelocity:
		e.Flywheel.SetVelocity(c.Value)
	case CmdDistance:
		e.Flywheel.SetDistance(c.Value)
	case CmdStop:
		e.Flywheel.Stop()
	case CmdHoist:
		e.Winch.Hoist()
	case CmdStick:
		e.Winch.Manual(e.Curve.Value(c.Value))
	case CmdWinchStop:
		e.Winch.Stop()
	case CmdEnable:
		e.Loop.Enable()
	case CmdDisable:
		e.Loop.Disable()
	default:
		return fmt.Errorf("unknown command: %s", c.Kind)
	}
	return nil
}
