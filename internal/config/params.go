package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/mechctl/internal/dynamo"
)

// Clone returns a deep copy so sweeps can mutate configurations freely.
func (c *Config) Clone() *Config {
	out := *c
	out.Flywheel.Table = make([]TableBreakpoint, len(c.Flywheel.Table))
	copy(out.Flywheel.Table, c.Flywheel.Table)
	return &out
}

// params maps dotted names to the numeric fields a sweep or tuner may set.
func (c *Config) params() map[string]*float64 {
	f := &c.Flywheel
	return map[string]*float64{
		"period":                   &c.Period,
		"duration":                 &c.Duration,
		"flywheel.gear_ratio":      &f.GearRatio,
		"flywheel.tolerance":       &f.Tolerance,
		"flywheel.feedforward.ks":  &f.Feedforward.Ks,
		"flywheel.feedforward.kv":  &f.Feedforward.Kv,
		"flywheel.feedforward.ka":  &f.Feedforward.Ka,
		"flywheel.gains.p":         &f.Gains.P,
		"flywheel.gains.i":         &f.Gains.I,
		"flywheel.gains.d":         &f.Gains.D,
		"flywheel.gains.f":         &f.Gains.F,
		"flywheel.gains.izone":     &f.Gains.IZone,
		"flywheel.motor.ramp_rate": &f.Motor.RampRate,
		"flywheel.plant.ks":        &f.Plant.Ks,
		"flywheel.plant.kv":        &f.Plant.Kv,
		"flywheel.plant.ka":        &f.Plant.Ka,
		"winch.hoist_speed":        &c.Winch.HoistSpeed,
	}
}

func (c *Config) GetParams() map[string]float64 {
	out := make(map[string]float64)
	for k, p := range c.params() {
		out[k] = *p
	}
	return out
}

// SetParam sets a dotted parameter. The result is not validated.
func (c *Config) SetParam(name string, value float64) error {
	p, ok := c.params()[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	*p = value
	return nil
}

// ParamNames lists every settable parameter.
func ParamNames() []string {
	names := make([]string, 0)
	for k := range DefaultConfig().params() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
