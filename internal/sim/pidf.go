package sim

import (
	"math"

	"github.com/san-kum/mechctl/internal/dynamo"
)

// pidf is the velocity loop a smart motor controller runs onboard. Output is
// a duty cycle; F multiplies the setpoint.
type pidf struct {
	gains    dynamo.Gains
	integral float64
	prevErr  float64
	first    bool
}

func newPIDF() *pidf {
	return &pidf{first: true}
}

func (p *pidf) update(setpoint, measured, dt float64) float64 {
	err := setpoint - measured

	if p.gains.IZone != 0 && math.Abs(err) > p.gains.IZone {
		p.integral = 0
	} else {
		p.integral += err * dt
	}

	derivative := 0.0
	if !p.first && dt > 0 {
		derivative = (err - p.prevErr) / dt
	}
	p.prevErr = err
	p.first = false

	g := p.gains
	return g.P*err + g.I*p.integral + g.D*derivative + g.F*setpoint
}

// reset clears integral and derivative state
func (p *pidf) reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}
