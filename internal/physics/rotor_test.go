package physics

import (
	"math"
	"testing"

	"github.com/san-kum/mechctl/internal/dynamo"
	"github.com/san-kum/mechctl/internal/units"
)

func TestRotor_Stiction(t *testing.T) {
	r := NewRotor(0.5, 0.01, 0.001)
	for _, v := range []float64{0, 0.2, -0.5} {
		if a := r.Derive(dynamo.State{0}, dynamo.Control{v}, 0)[0]; a != 0 {
			t.Errorf("volts %v: expected rotor to stay put, got accel %v", v, a)
		}
	}
	if a := r.Derive(dynamo.State{0}, dynamo.Control{1}, 0)[0]; a <= 0 {
		t.Errorf("expected positive accel breaking stiction, got %v", a)
	}
}

func TestRotor_SteadyState(t *testing.T) {
	r := NewRotor(0.0574, 0.002183, 0.00102)
	w := r.SteadyVelocity(12)
	if a := r.Derive(dynamo.State{w}, dynamo.Control{12}, 0)[0]; math.Abs(a) > 1e-9 {
		t.Errorf("accel at steady velocity %v = %v", w, a)
	}
	if r.SteadyVelocity(0.01) != 0 {
		t.Error("expected zero steady velocity below static friction")
	}
}

func TestNewGearedRotor(t *testing.T) {
	g := units.MustGearRatio(0.5)
	r := NewGearedRotor(0.1, 0.002, 0.001, g)

	// Same voltage, same physical speed, expressed per motor shaft.
	mech := NewRotor(0.1, 0.002, 0.001)
	if got, want := r.SteadyVelocity(5), g.ToInternal(mech.SteadyVelocity(5)); math.Abs(got-want) > 1e-9 {
		t.Errorf("steady velocity %v, want %v", got, want)
	}
}

func TestRotor_Params(t *testing.T) {
	r := NewRotor(1, 2, 3)
	if err := r.SetParam("kv", 4); err != nil {
		t.Fatal(err)
	}
	if r.GetParams()["kv"] != 4 {
		t.Errorf("kv = %v", r.GetParams()["kv"])
	}
	if err := r.SetParam("mass", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}
