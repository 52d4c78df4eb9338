// Package sim stands in for the robot: simulated motor controllers and the
// fixed rate loop that drives components through their lifecycle.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/mechctl/internal/dynamo"
)

// Loop ticks components at a fixed period. It never reads the wall clock;
// callers that want real time pace Step themselves.
type Loop struct {
	period     float64
	components []dynamo.Component
	plants     []Plant
	telemetry  Snapshotter
	observers  []Observer
	metrics    []Metric
	log        *log.Logger

	enabled bool
	t       float64
	steps   int
	values  map[string]float64
}

// NewLoop creates a disabled loop. telemetry may be nil.
func NewLoop(period float64, telemetry Snapshotter, logger *log.Logger) (*Loop, error) {
	if period <= 0 || math.IsNaN(period) || math.IsInf(period, 0) {
		return nil, fmt.Errorf("period %v: %w", period, dynamo.ErrPeriod)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		period:    period,
		telemetry: telemetry,
		log:       logger.WithPrefix("loop"),
	}, nil
}

func (l *Loop) Add(c dynamo.Component) { l.components = append(l.components, c) }

// AddPlant registers p. Gated plants take on the loop's current state.
func (l *Loop) AddPlant(p Plant) {
	if g, ok := p.(Gated); ok {
		g.SetEnabled(l.enabled)
	}
	l.plants = append(l.plants, p)
}

func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }
func (l *Loop) AddMetric(m Metric) { l.metrics = append(l.metrics, m) }
func (l *Loop) Period() float64 { return l.period }
func (l *Loop) Time() float64 { return l.t }
func (l *Loop) Enabled() bool { return l.enabled }

// Enable runs every component's OnEnable hook. Enabling twice is a no-op.
func (l *Loop) Enable() {
	if l.enabled {
		return
	}
	l.enabled = true
	l.log.Info("enabled", "t", l.t)
	l.gate()
	for _, c := range l.components {
		c.OnEnable()
	}
}

// Disable runs every component's OnDisable hook. Disabling twice is a no-op.
func (l *Loop) Disable() {
	if !l.enabled {
		return
	}
	l.enabled = false
	l.log.Info("disabled", "t", l.t)
	for _, c := range l.components {
		c.OnDisable()
	}
	l.gate()
}

func (l *Loop) gate() {
	for _, p := range l.plants {
		if g, ok := p.(Gated); ok {
			g.SetEnabled(l.enabled)
		}
	}
}

// Step runs one period: components tick, plants advance, then observers and
// metrics see the published telemetry. Components tick while disabled too so
// sensors stay live; gated plants keep their outputs neutral until Enable.
func (l *Loop) Step() {
	for _, c := range l.components {
		c.Tick()
	}
	for _, p := range l.plants {
		p.Step(l.period)
	}
	l.t += l.period
	l.steps++

	if len(l.observers) == 0 && len(l.metrics) == 0 {
		return
	}
	var values map[string]float64
	if l.telemetry != nil {
		values = l.telemetry.Snapshot()
	}
	l.values = values
	for _, m := range l.metrics {
		m.Observe(l.t, values)
	}
	for _, o := range l.observers {
		o.OnTick(l.t, values)
	}
}

// Run enables the loop and steps it for duration seconds of loop time,
// recording every telemetry value. The loop is disabled on return.
func (l *Loop) Run(ctx context.Context, duration float64) (*Result, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %f", duration)
	}

	steps := int(math.Round(duration / l.period))
	rec := newRecorder(steps)
	l.AddObserver(rec)
	defer l.removeObserver(rec)

	for _, m := range l.metrics {
		m.Reset()
	}

	l.Enable()
	defer l.Disable()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return rec.result(l.metrics), ctx.Err()
		default:
		}
		l.Step()
		if k, ok := nonFinite(l.values); ok {
			return rec.result(l.metrics), LoopError{Time: l.t, Step: i, Message: "non-finite telemetry " + k}
		}
	}

	res := rec.result(l.metrics)
	l.log.Debug("run complete", "steps", res.Steps, "t", l.t)
	return res, nil
}

func nonFinite(values map[string]float64) (string, bool) {
	for k, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return k, true
		}
	}
	return "", false
}

func (l *Loop) removeObserver(o Observer) {
	for i, obs := range l.observers {
		if obs == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

type recorder struct {
	times  []float64
	series map[string][]float64
}

func newRecorder(capacity int) *recorder {
	return &recorder{
		times:  make([]float64, 0, capacity),
		series: make(map[string][]float64),
	}
}

func (r *recorder) OnTick(t float64, values map[string]float64) {
	n := len(r.times)
	r.times = append(r.times, t)
	for k, v := range values {
		s, ok := r.series[k]
		if !ok {
			// Keys that appear late are zero filled so series align with times.
			s = make([]float64, n, cap(r.times))
		}
		r.series[k] = append(s, v)
	}
	for k, s := range r.series {
		if len(s) == n {
			r.series[k] = append(s, s[n-1])
		}
	}
}

func (r *recorder) result(metrics []Metric) *Result {
	res := &Result{
		Times:   r.times,
		Series:  r.series,
		Metrics: make(map[string]float64, len(metrics)),
		Steps:   len(r.times),
	}
	for _, m := range metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}
