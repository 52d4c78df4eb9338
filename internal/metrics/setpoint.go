package metrics

import (
	"math"

	"github.com/san-kum/mechctl/internal/telemetry"
)

// AtSetpointRatio is the fraction of ticks spent at setpoint while active.
type AtSetpointRatio struct {
	key, desiredKey string
	hits, samples   int
}

func NewAtSetpointRatio(component string) *AtSetpointRatio {
	return &AtSetpointRatio{
		key:        telemetry.Key(component, "at_setpoint"),
		desiredKey: telemetry.Key(component, "desired_rpm"),
	}
}

func (a *AtSetpointRatio) Name() string { return "at_setpoint_ratio" }

func (a *AtSetpointRatio) Observe(t float64, values map[string]float64) {
	if values[a.desiredKey] == 0 {
		return
	}
	a.samples++
	if values[a.key] != 0 {
		a.hits++
	}
}

func (a *AtSetpointRatio) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.hits) / float64(a.samples)
}

func (a *AtSetpointRatio) Reset() {
	a.hits = 0
	a.samples = 0
}

// SettlingTime is the time from the last setpoint change until the
// controller entered tolerance for good. It is -1 when the run ended
// outside tolerance.
type SettlingTime struct {
	key, desiredKey string
	changedAt       float64
	settledAt       float64
	settled         bool
	lastDesired     float64
}

func NewSettlingTime(component string) *SettlingTime {
	s := &SettlingTime{
		key:        telemetry.Key(component, "at_setpoint"),
		desiredKey: telemetry.Key(component, "desired_rpm"),
	}
	s.Reset()
	return s
}

func (s *SettlingTime) Name() string { return "settling_time" }

func (s *SettlingTime) Observe(t float64, values map[string]float64) {
	desired := values[s.desiredKey]
	if desired != s.lastDesired {
		s.lastDesired = desired
		s.changedAt = t
		s.settled = false
	}

	at := values[s.key] != 0
	switch {
	case at && !s.settled:
		s.settled = true
		s.settledAt = t
	case !at:
		s.settled = false
	}
}

func (s *SettlingTime) Value() float64 {
	if !s.settled {
		return -1
	}
	return s.settledAt - s.changedAt
}

func (s *SettlingTime) Reset() {
	s.changedAt = 0
	s.settledAt = math.NaN()
	s.settled = false
	s.lastDesired = 0
}
