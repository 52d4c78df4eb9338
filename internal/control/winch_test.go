package control

import (
	"errors"
	"testing"

	"github.com/san-kum/mechctl/internal/dynamo"
)

func TestWinch(t *testing.T) {
	motor := &fakeMotor{}
	sink := mapSink{}
	w, err := NewWinch(0.5, motor, sink, nil)
	if err != nil {
		t.Fatal(err)
	}

	w.Tick()
	if got := motor.last(); got.openLoop != 0 {
		t.Errorf("idle winch commanded %v", got.openLoop)
	}

	w.Hoist()
	w.Tick()
	if !w.IsHoisting() || motor.last().openLoop != 0.5 {
		t.Errorf("hoisting winch commanded %v", motor.last().openLoop)
	}
	if sink["output"] != 0.5 {
		t.Errorf("telemetry output = %v", sink["output"])
	}

	w.OnDisable()
	w.Tick()
	if w.IsHoisting() || w.Output() != 0 || motor.last().openLoop != 0 {
		t.Error("disable did not stop the winch")
	}
}

func TestWinch_Manual(t *testing.T) {
	motor := &fakeMotor{}
	w, _ := NewWinch(0.5, motor, nil, nil)

	w.Manual(-0.3)
	w.Tick()
	if motor.last().openLoop != -0.3 {
		t.Errorf("manual output = %v, want -0.3", motor.last().openLoop)
	}
	w.Manual(7)
	if w.Output() != 1 {
		t.Errorf("manual output not clamped: %v", w.Output())
	}
}

func TestNewWinch_Invalid(t *testing.T) {
	if _, err := NewWinch(1.5, &fakeMotor{}, nil, nil); !errors.Is(err, dynamo.ErrOutputRange) {
		t.Errorf("expected ErrOutputRange, got %v", err)
	}

	_, err := NewWinch(0.5, nil, nil, nil)
	var cerr *dynamo.ConfigError
	if !errors.Is(err, dynamo.ErrNoMotor) || !errors.As(err, &cerr) || cerr.Field != "motor" {
		t.Errorf("expected motor ConfigError, got %v", err)
	}
}

func TestTunables(t *testing.T) {
	tun := NewTunables(dynamo.Gains{P: 1})

	tests := []struct {
		name  string
		value float64
		want  error
	}{
		{"p", 2, nil},
		{"i", 0.1, nil},
		{"d", 0.01, nil},
		{"f", 0.0002, nil},
		{"izone", 300, nil},
		{"kp", 1, dynamo.ErrUnknownParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tun.SetParam(tt.name, tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.want == nil && tun.GetParams()[tt.name] != tt.value {
				t.Errorf("param %s = %v, want %v", tt.name, tun.GetParams()[tt.name], tt.value)
			}
		})
	}

	want := dynamo.Gains{P: 2, I: 0.1, D: 0.01, F: 0.0002, IZone: 300}
	if got := tun.Gains(); got != want {
		t.Errorf("Gains() = %+v, want %+v", got, want)
	}
}
