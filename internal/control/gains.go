package control

import (
	"fmt"
	"sync"

	"github.com/san-kum/mechctl/internal/dynamo"
)

// Tunables holds gains that can be changed at any time, typically from an
// operator console. Controllers read them when they are enabled.
type Tunables struct {
	mu    sync.RWMutex
	gains dynamo.Gains
}

func NewTunables(g dynamo.Gains) *Tunables {
	return &Tunables{gains: g}
}

func (t *Tunables) Gains() dynamo.Gains {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gains
}

func (t *Tunables) Set(g dynamo.Gains) {
	t.mu.Lock()
	t.gains = g
	t.mu.Unlock()
}

// GetParams returns the gains keyed by parameter name.
func (t *Tunables) GetParams() map[string]float64 {
	g := t.Gains()
	return map[string]float64{
		"p":     g.P,
		"i":     g.I,
		"d":     g.D,
		"f":     g.F,
		"izone": g.IZone,
	}
}

// SetParam adjusts a single gain.
func (t *Tunables) SetParam(name string, value float64) error {
	if !dynamo.Finite(value) {
		return fmt.Errorf("%s=%v: %w", name, value, dynamo.ErrNonFinite)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch name {
	case "p":
		t.gains.P = value
	case "i":
		t.gains.I = value
	case "d":
		t.gains.D = value
	case "f":
		t.gains.F = value
	case "izone":
		t.gains.IZone = value
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}

var _ dynamo.Configurable = (*Tunables)(nil)
