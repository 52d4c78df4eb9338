package config

import (
	"fmt"
	"os"

	"github.com/san-kum/mechctl/internal/dynamo"
	"github.com/san-kum/mechctl/internal/feedforward"
	"github.com/san-kum/mechctl/internal/schedule"
	"github.com/san-kum/mechctl/internal/shaping"
	"github.com/san-kum/mechctl/internal/units"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPeriod     = 0.02
	DefaultDuration   = 6.0
	DefaultBusVoltage = 12.0
	DefaultRampRate   = 2.5
	DefaultTolerance  = 0.05
	DefaultHoistSpeed = 0.5

	// Flywheel motor turns per wheel turn.
	DefaultGearRatio = 30.0 / 56.0

	DefaultKs = 0.0574   // V
	DefaultKv = 0.002183 // V / rpm
	DefaultKa = 0.00102  // V / (rpm / s)
)

type Config struct {
	Period     float64        `yaml:"period"`
	Duration   float64        `yaml:"duration"`
	Integrator string         `yaml:"integrator"`
	Flywheel   FlywheelConfig `yaml:"flywheel"`
	Winch      WinchConfig    `yaml:"winch"`
	Joystick   shaping.Params `yaml:"joystick"`
}

type FlywheelConfig struct {
	GearRatio   float64           `yaml:"gear_ratio"`
	Tolerance   float64           `yaml:"tolerance"`
	Feedforward MotorModel        `yaml:"feedforward"`
	Gains       dynamo.Gains      `yaml:"gains"`
	Motor       MotorConfig       `yaml:"motor"`
	Plant       MotorModel        `yaml:"plant"`
	Table       []TableBreakpoint `yaml:"table"`
}

// MotorModel holds characterization constants in mechanism units.
type MotorModel struct {
	Ks float64 `yaml:"ks"`
	Kv float64 `yaml:"kv"`
	Ka float64 `yaml:"ka"`
}

type MotorConfig struct {
	BusVoltage float64 `yaml:"bus_voltage"`
	RampRate   float64 `yaml:"ramp_rate"`
}

// TableBreakpoint is a shot distance in feet and the wheel speed in rpm.
type TableBreakpoint struct {
	DistanceFt float64 `yaml:"distance_ft"`
	RPM        float64 `yaml:"rpm"`
}

type WinchConfig struct {
	HoistSpeed float64     `yaml:"hoist_speed"`
	Motor      MotorConfig `yaml:"motor"`
	Plant      MotorModel  `yaml:"plant"`
}

var defaultTable = []TableBreakpoint{
	{6, 4620}, {7, 4620}, {8, 4390}, {9, 4200}, {10, 4250}, {11, 4300},
	{12, 4220}, {13, 4300}, {14, 4330}, {15, 4350}, {16, 4360},
}

func DefaultConfig() *Config {
	table := make([]TableBreakpoint, len(defaultTable))
	copy(table, defaultTable)

	return &Config{
		Period:     DefaultPeriod,
		Duration:   DefaultDuration,
		Integrator: "rk4",
		Flywheel: FlywheelConfig{
			GearRatio:   DefaultGearRatio,
			Tolerance:   DefaultTolerance,
			Feedforward: MotorModel{Ks: DefaultKs, Kv: DefaultKv, Ka: DefaultKa},
			Motor:       MotorConfig{BusVoltage: DefaultBusVoltage, RampRate: DefaultRampRate},
			Plant:       MotorModel{Ks: DefaultKs, Kv: DefaultKv, Ka: DefaultKa},
			Table:       table,
		},
		Winch: WinchConfig{
			HoistSpeed: DefaultHoistSpeed,
			Motor:      MotorConfig{BusVoltage: DefaultBusVoltage},
			Plant:      MotorModel{Ks: 0.3, Kv: 0.01, Ka: 0.002},
		},
		Joystick: shaping.Params{
			Kind:     shaping.KindPiecewise,
			Slow:     0.5,
			Fast:     1.5,
			Exponent: 2,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over base, so a file can refine a preset.
func LoadOver(path string, cfg *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate builds every derived value once so configuration mistakes fail
// at startup.
func (c *Config) Validate() error {
	if c.Period <= 0 {
		return &dynamo.ConfigError{Field: "period", Wrapped: dynamo.ErrPeriod}
	}
	if c.Duration <= 0 {
		return &dynamo.ConfigError{Field: "duration", Wrapped: fmt.Errorf("must be positive, got %v", c.Duration)}
	}
	if _, err := c.Gear(); err != nil {
		return err
	}
	if _, err := c.Feedforward(); err != nil {
		return err
	}
	if _, err := c.SetpointTable(); err != nil {
		return err
	}
	if _, err := c.Curve(); err != nil {
		return err
	}
	if t := c.Flywheel.Tolerance; t < 0 || !dynamo.Finite(t) {
		return &dynamo.ConfigError{Field: "flywheel.tolerance", Wrapped: dynamo.ErrTolerance}
	}
	if err := c.Flywheel.Plant.validate("flywheel.plant"); err != nil {
		return err
	}
	if err := c.Winch.Plant.validate("winch.plant"); err != nil {
		return err
	}
	return nil
}

func (c *Config) Gear() (units.GearRatio, error) {
	g, err := units.NewGearRatio(c.Flywheel.GearRatio)
	if err != nil {
		return g, &dynamo.ConfigError{Field: "flywheel.gear_ratio", Wrapped: err}
	}
	return g, nil
}

func (c *Config) Feedforward() (feedforward.SimpleMotor, error) {
	m := c.Flywheel.Feedforward
	ff, err := feedforward.NewSimpleMotor(m.Ks, m.Kv, m.Ka)
	if err != nil {
		return ff, &dynamo.ConfigError{Field: "flywheel.feedforward", Wrapped: err}
	}
	return ff, nil
}

// SetpointTable converts the configured distances from feet to metres.
func (c *Config) SetpointTable() (*schedule.Table, error) {
	points := make([]schedule.Breakpoint, len(c.Flywheel.Table))
	for i, p := range c.Flywheel.Table {
		points[i] = schedule.Breakpoint{Distance: units.FeetToMeters(p.DistanceFt), Velocity: p.RPM}
	}
	t, err := schedule.New(points)
	if err != nil {
		return nil, &dynamo.ConfigError{Field: "flywheel.table", Wrapped: err}
	}
	return t, nil
}

func (c *Config) Curve() (shaping.Curve, error) {
	curve, err := shaping.New(c.Joystick)
	if err != nil {
		return nil, &dynamo.ConfigError{Field: "joystick", Wrapped: err}
	}
	return curve, nil
}

func (m MotorModel) validate(field string) error {
	if !dynamo.Finite(m.Ks, m.Kv, m.Ka) {
		return &dynamo.ConfigError{Field: field, Wrapped: dynamo.ErrNonFinite}
	}
	if m.Ka <= 0 {
		return &dynamo.ConfigError{Field: field + ".ka", Wrapped: fmt.Errorf("must be positive, got %v", m.Ka)}
	}
	return nil
}
