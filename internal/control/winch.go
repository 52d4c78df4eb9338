package control

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/mechctl/internal/dynamo"
)

// OpenLoopMotor is the subset of [dynamo.Actuator] the winch needs.
type OpenLoopMotor interface {
	SetOpenLoop(fraction float64)
}

// Winch hoists at a fixed open-loop output.
type Winch struct {
	motor    OpenLoopMotor
	speed    float64
	sink     dynamo.TelemetrySink
	log      *log.Logger
	hoisting bool
	output   float64
}

func NewWinch(speed float64, motor OpenLoopMotor, sink dynamo.TelemetrySink, logger *log.Logger) (*Winch, error) {
	if !dynamo.Finite(speed) {
		return nil, &dynamo.ConfigError{Field: "hoist_speed", Wrapped: dynamo.ErrNonFinite}
	}
	if math.Abs(speed) > 1 {
		return nil, &dynamo.ConfigError{Field: "hoist_speed", Wrapped: fmt.Errorf("%v: %w", speed, dynamo.ErrOutputRange)}
	}
	if motor == nil {
		return nil, &dynamo.ConfigError{Field: "motor", Wrapped: dynamo.ErrNoMotor}
	}
	if sink == nil {
		sink = discard{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Winch{motor: motor, speed: speed, sink: sink, log: logger.WithPrefix("winch")}, nil
}

func (w *Winch) Hoist() {
	if !w.hoisting {
		w.log.Debug("hoist", "output", w.speed)
	}
	w.hoisting = true
	w.output = w.speed
}

// Manual drives the winch at an operator supplied output, clamped to
// [-1, 1].
func (w *Winch) Manual(output float64) {
	w.hoisting = true
	w.output = math.Max(-1, math.Min(1, output))
}

func (w *Winch) Stop() {
	w.hoisting = false
	w.output = 0
}

func (w *Winch) IsHoisting() bool { return w.hoisting }
func (w *Winch) Output() float64  { return w.output }

func (w *Winch) OnEnable() {}

func (w *Winch) OnDisable() {
	w.Stop()
}

func (w *Winch) Tick() {
	if w.hoisting {
		w.motor.SetOpenLoop(w.output)
	} else {
		w.motor.SetOpenLoop(0)
	}
	w.sink.PutNumber("output", w.output)
}

var _ dynamo.Component = (*Winch)(nil)
