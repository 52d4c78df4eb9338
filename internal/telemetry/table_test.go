package telemetry

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

func TestTable_Sub(t *testing.T) {
	tbl := NewTable()
	fly := tbl.Sub(ComponentPrefix("Flywheel"))
	winch := tbl.Sub("/components/winch/")

	fly.PutNumber("desired_rpm", 4200)
	fly.PutNumber("actual_rpm", 4100)
	winch.PutNumber("output", 0.5)

	want := map[string]float64{
		"/components/flywheel/desired_rpm": 4200,
		"/components/flywheel/actual_rpm":  4100,
		"/components/winch/output":         0.5,
	}
	if diff := cmp.Diff(want, tbl.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	wantKeys := []string{
		"/components/flywheel/actual_rpm",
		"/components/flywheel/desired_rpm",
		"/components/winch/output",
	}
	if diff := cmp.Diff(wantKeys, tbl.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_GetNumber(t *testing.T) {
	tbl := NewTable()
	if got := tbl.GetNumber("missing", -1); got != -1 {
		t.Errorf("GetNumber(missing) = %v, want -1", got)
	}
	tbl.PutNumber(Key("flywheel", "feedforward"), 3.5)
	if got := tbl.GetNumber("/components/flywheel/feedforward", 0); got != 3.5 {
		t.Errorf("GetNumber = %v, want 3.5", got)
	}
}

func TestTable_SnapshotIsCopy(t *testing.T) {
	tbl := NewTable()
	tbl.PutNumber("a", 1)
	snap := tbl.Snapshot()
	snap["a"] = 2
	if tbl.GetNumber("a", 0) != 1 {
		t.Error("mutating snapshot changed the table")
	}
}

func TestLogger_Sampling(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)

	obs := NewLogger(l, 3, "rpm")
	for i := 1; i <= 7; i++ {
		obs.OnTick(float64(i), map[string]float64{"rpm": float64(i * 100), "other": 1})
	}

	out := buf.String()
	if n := strings.Count(out, "telemetry"); n != 2 {
		t.Fatalf("expected 2 log lines, got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "rpm=300") || !strings.Contains(out, "rpm=600") {
		t.Errorf("unexpected log output:\n%s", out)
	}
	if strings.Contains(out, "other") {
		t.Errorf("unrequested key logged:\n%s", out)
	}
}
