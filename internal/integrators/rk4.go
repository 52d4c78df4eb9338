// Package integrators advances plant models by one fixed timestep.
package integrators

import "github.com/san-kum/mechctl/internal/dynamo"

// RK4 is the classic fourth order Runge-Kutta stepper. Scratch buffers are
// reused between steps, so an RK4 must not be shared between plants that
// are stepped concurrently.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

// stage evaluates the derivative at x + h*prev into k.
func (r *RK4) stage(dyn dynamo.System, k, prev, x dynamo.State, u dynamo.Control, t, h float64) {
	for i := range x {
		r.scratch[i] = x[i] + h*prev[i]
	}
	copy(k, dyn.Derive(r.scratch, u, t))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k[0], dyn.Derive(x, u, t))
	r.stage(dyn, r.k[1], r.k[0], x, u, t+dt/2, dt/2)
	r.stage(dyn, r.k[2], r.k[1], x, u, t+dt/2, dt/2)
	r.stage(dyn, r.k[3], r.k[2], x, u, t+dt, dt)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}
