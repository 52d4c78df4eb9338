package sim

import "fmt"

// Snapshotter exposes the latest telemetry values.
type Snapshotter interface {
	Snapshot() map[string]float64
}

// Observer is notified after every tick with the loop time and the
// telemetry published during that tick.
type Observer interface {
	OnTick(t float64, values map[string]float64)
}

type Metric interface {
	Name() string
	Observe(t float64, values map[string]float64)
	Value() float64
	Reset()
}

// Plant is a simulated device the loop advances after the components tick.
type Plant interface {
	Step(dt float64)
}

// Gated plants follow the loop's enable state. A disabled plant holds its
// actuators neutral and ignores commands.
type Gated interface {
	SetEnabled(enabled bool)
}

type Result struct {
	Times   []float64
	Series  map[string][]float64
	Metrics map[string]float64
	Steps   int
}

type LoopError struct {
	Time    float64
	Step    int
	Message string
}

func (e LoopError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
