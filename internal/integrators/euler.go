package integrators

import "github.com/san-kum/mechctl/internal/dynamo"

// Euler is the explicit first order stepper, selected with integrator: euler.
// On a rotor plant it is stable while dt < 2*Ka/Kv; at the default
// characterization that is about 0.9 s, far above any loop period.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (*Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next := x.Clone()
	for i, d := range dyn.Derive(x, u, t) {
		next[i] += dt * d
	}
	return next
}
