package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mechctl/internal/dynamo"
	"github.com/san-kum/mechctl/internal/units"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Period <= 0 {
		t.Error("period should be positive")
	}
	if len(cfg.Flywheel.Table) != 11 {
		t.Errorf("expected 11 breakpoints, got %d", len(cfg.Flywheel.Table))
	}
}

func TestSetpointTable_Meters(t *testing.T) {
	cfg := DefaultConfig()
	tbl, err := cfg.SetpointTable()
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Interpolate(units.FeetToMeters(10)); got != 4250 {
		t.Errorf("rpm at 10 ft = %v, want 4250", got)
	}
	lo, hi := tbl.Range()
	if math.Abs(lo-6*units.MetersPerFoot) > 1e-12 || math.Abs(hi-16*units.MetersPerFoot) > 1e-12 {
		t.Errorf("range = %v..%v", lo, hi)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
		want   error
	}{
		{"period", func(c *Config) { c.Period = 0 }, "period", dynamo.ErrPeriod},
		{"gear", func(c *Config) { c.Flywheel.GearRatio = 0 }, "flywheel.gear_ratio", dynamo.ErrGearRatio},
		{"table order", func(c *Config) { c.Flywheel.Table[1].DistanceFt = 6 }, "flywheel.table", dynamo.ErrTableOrder},
		{"table short", func(c *Config) { c.Flywheel.Table = c.Flywheel.Table[:1] }, "flywheel.table", dynamo.ErrTableTooShort},
		{"curve", func(c *Config) { c.Joystick.Fast = c.Joystick.Slow }, "joystick", dynamo.ErrCurveSlopes},
		{"tolerance", func(c *Config) { c.Flywheel.Tolerance = -1 }, "flywheel.tolerance", dynamo.ErrTolerance},
		{"feedforward", func(c *Config) { c.Flywheel.Feedforward.Kv = math.NaN() }, "flywheel.feedforward", dynamo.ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var cerr *dynamo.ConfigError
			if !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mechctl.yaml")
	data := []byte(`
period: 0.01
flywheel:
  tolerance: 0.02
  gains:
    p: 0.0005
    izone: 150
  table:
    - {distance_ft: 5, rpm: 4000}
    - {distance_ft: 20, rpm: 5000}
joystick:
  kind: exponential
  exponent: 3
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Period != 0.01 || cfg.Flywheel.Tolerance != 0.02 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Flywheel.Gains.P != 0.0005 || cfg.Flywheel.Gains.IZone != 150 {
		t.Errorf("gains = %+v", cfg.Flywheel.Gains)
	}
	if len(cfg.Flywheel.Table) != 2 {
		t.Errorf("table len = %d", len(cfg.Flywheel.Table))
	}
	if cfg.Flywheel.GearRatio != DefaultGearRatio {
		t.Errorf("default gear ratio lost: %v", cfg.Flywheel.GearRatio)
	}
	if cfg.Joystick.Kind != "exponential" {
		t.Errorf("joystick kind = %q", cfg.Joystick.Kind)
	}
}

func TestLoadOver_Preset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mechctl.yaml")
	if err := os.WriteFile(path, []byte("duration: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadOver(path, GetPreset("tuned"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Duration != 2 {
		t.Errorf("duration = %v, want 2", cfg.Duration)
	}
	if cfg.Flywheel.Gains.P == 0 {
		t.Error("preset gains lost")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("flywheel:\n  gear_ratio: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, dynamo.ErrGearRatio) {
		t.Errorf("expected ErrGearRatio, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := DefaultConfig().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "dump.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("dumped config does not load: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("tuned")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Flywheel.Gains.P == 0 {
		t.Error("tuned preset has no P gain")
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}

	// Presets must not leak into the defaults.
	if DefaultConfig().Flywheel.Gains.P != 0 {
		t.Error("preset mutated defaults")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.Clone()
	c.Flywheel.Table[0].RPM = 1
	c.Flywheel.Gains.P = 1

	if cfg.Flywheel.Table[0].RPM == 1 || cfg.Flywheel.Gains.P == 1 {
		t.Error("clone shares state with source config")
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.SetParam("flywheel.plant.kv", 0.003); err != nil {
		t.Fatal(err)
	}
	if cfg.Flywheel.Plant.Kv != 0.003 {
		t.Errorf("kv = %v", cfg.Flywheel.Plant.Kv)
	}
	if got := cfg.GetParams()["flywheel.plant.kv"]; got != 0.003 {
		t.Errorf("GetParams kv = %v", got)
	}
	if err := cfg.SetParam("flywheel.mass", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	if len(ParamNames()) != len(cfg.GetParams()) {
		t.Error("ParamNames out of sync")
	}
}
