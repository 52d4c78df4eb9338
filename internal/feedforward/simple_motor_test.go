package feedforward

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mechctl/internal/dynamo"
)

func TestSimpleMotor_Calculate(t *testing.T) {
	m, err := NewSimpleMotor(0.0574, 0.002183, 0.00102)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		v, a     float64
		expected float64
	}{
		{"rest", 0, 0, 0},
		{"forward", 1000, 0, 0.0574 + 2.183},
		{"reverse", -1000, 0, -0.0574 - 2.183},
		{"accelerating", 1000, 50, 0.0574 + 2.183 + 0.051},
		{"decelerating", 1000, -50, 0.0574 + 2.183 - 0.051},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Calculate(tt.v, tt.a)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Calculate(%v, %v) = %v, want %v", tt.v, tt.a, got, tt.expected)
			}
		})
	}
}

func TestSimpleMotor_ZeroVelocityOmitsStatic(t *testing.T) {
	m := SimpleMotor{Ks: 0.5, Kv: 2, Ka: 3}
	for _, a := range []float64{-10, -1, 0, 1, 10} {
		if got, want := m.Calculate(0, a), m.Kv*0+m.Ka*a; got != want {
			t.Errorf("Calculate(0, %v) = %v, want %v", a, got, want)
		}
	}
}

func TestSimpleMotor_MaxVelocity(t *testing.T) {
	m := SimpleMotor{Ks: 1, Kv: 0.5}
	v := m.MaxVelocity(12)
	if math.Abs(m.Calculate(v, 0)-12) > 1e-9 {
		t.Errorf("MaxVelocity(12) = %v does not reproduce 12 V", v)
	}
	if !math.IsInf(SimpleMotor{}.MaxVelocity(12), 1) {
		t.Error("expected +Inf with zero Kv")
	}
}

func TestNewSimpleMotor_NonFinite(t *testing.T) {
	_, err := NewSimpleMotor(math.NaN(), 1, 1)
	if !errors.Is(err, dynamo.ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
	_, err = NewSimpleMotor(0, 0, math.Inf(1))
	if !errors.Is(err, dynamo.ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}
