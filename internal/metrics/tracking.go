package metrics

import (
	"math"

	"github.com/san-kum/mechctl/internal/telemetry"
	"gonum.org/v1/gonum/floats"
)

// TrackingRMSE is the root mean square of desired minus actual velocity
// over the ticks where a setpoint was commanded.
type TrackingRMSE struct {
	desiredKey, actualKey string
	errs                  []float64
}

func NewTrackingRMSE(component string) *TrackingRMSE {
	return &TrackingRMSE{
		desiredKey: telemetry.Key(component, "desired_rpm"),
		actualKey:  telemetry.Key(component, "actual_rpm"),
	}
}

func (r *TrackingRMSE) Name() string { return "tracking_rmse" }

func (r *TrackingRMSE) Observe(t float64, values map[string]float64) {
	desired := values[r.desiredKey]
	if desired == 0 {
		return
	}
	r.errs = append(r.errs, desired-values[r.actualKey])
}

func (r *TrackingRMSE) Value() float64 {
	if len(r.errs) == 0 {
		return 0
	}
	return floats.Norm(r.errs, 2) / math.Sqrt(float64(len(r.errs)))
}

func (r *TrackingRMSE) Reset() { r.errs = r.errs[:0] }

// Overshoot is the peak actual velocity above the setpoint, as a fraction
// of the setpoint.
type Overshoot struct {
	desiredKey, actualKey string
	ratios                []float64
}

func NewOvershoot(component string) *Overshoot {
	return &Overshoot{
		desiredKey: telemetry.Key(component, "desired_rpm"),
		actualKey:  telemetry.Key(component, "actual_rpm"),
	}
}

func (o *Overshoot) Name() string { return "overshoot" }

func (o *Overshoot) Observe(t float64, values map[string]float64) {
	desired := values[o.desiredKey]
	if desired <= 0 {
		return
	}
	o.ratios = append(o.ratios, (values[o.actualKey]-desired)/desired)
}

func (o *Overshoot) Value() float64 {
	if len(o.ratios) == 0 {
		return 0
	}
	return math.Max(0, floats.Max(o.ratios))
}

func (o *Overshoot) Reset() { o.ratios = o.ratios[:0] }

// ControlEffort is the mean absolute feedforward voltage.
type ControlEffort struct {
	key     string
	samples []float64
}

func NewControlEffort(component string) *ControlEffort {
	return &ControlEffort{key: telemetry.Key(component, "feedforward")}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(t float64, values map[string]float64) {
	c.samples = append(c.samples, values[c.key])
}

func (c *ControlEffort) Value() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	return floats.Norm(c.samples, 1) / float64(len(c.samples))
}

func (c *ControlEffort) Reset() { c.samples = c.samples[:0] }
