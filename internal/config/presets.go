package config

import (
	"sort"

	"github.com/san-kum/mechctl/internal/dynamo"
)

// Presets adjust the default configuration for common scenarios.
var Presets = map[string]func(*Config){
	// Feedforward only, no closed-loop correction.
	"characterized": func(c *Config) {},
	"tuned": func(c *Config) {
		c.Flywheel.Gains = dynamo.Gains{P: 0.0004, I: 0.0008, IZone: 200}
	},
	// The real wheel is heavier and draggier than the characterization.
	"mismatched": func(c *Config) {
		c.Flywheel.Plant.Kv *= 1.1
		c.Flywheel.Plant.Ka *= 1.3
		c.Flywheel.Gains = dynamo.Gains{P: 0.0004, I: 0.0008, IZone: 200}
	},
	"no_ramp": func(c *Config) {
		c.Flywheel.Motor.RampRate = 0
	},
	"fast_loop": func(c *Config) {
		c.Period = 0.005
	},
}

// GetPreset returns a fresh configuration for preset, or nil if unknown.
func GetPreset(preset string) *Config {
	apply, ok := Presets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
