package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/mechctl/internal/sim"
	"github.com/san-kum/mechctl/internal/telemetry"
	"gonum.org/v1/gonum/stat"
)

// Spectrum returns the single-sided amplitude spectrum of x sampled every
// dt seconds. The mean is removed first so bin zero carries no offset.
func Spectrum(x []float64, dt float64) (freqs, amps []float64) {
	n := len(x)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	mean := stat.Mean(x, nil)
	centered := make([]float64, n)
	for i, v := range x {
		centered[i] = v - mean
	}
	coeffs := fft.FFTReal(centered)

	half := n/2 + 1
	freqs = make([]float64, half)
	amps = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		a := cmplx.Abs(coeffs[k]) / float64(n)
		if k != 0 && !(n%2 == 0 && k == n/2) {
			a *= 2
		}
		amps[k] = a
	}
	return freqs, amps
}

// DominantFrequency is the non-zero frequency with the largest amplitude.
func DominantFrequency(x []float64, dt float64) (hz, amplitude float64) {
	freqs, amps := Spectrum(x, dt)
	for k := 1; k < len(amps); k++ {
		if amps[k] > amplitude {
			hz, amplitude = freqs[k], amps[k]
		}
	}
	return hz, amplitude
}

// TrackingError is desired minus actual speed for component at every tick.
func TrackingError(res *sim.Result, component string) []float64 {
	desired := res.Series[telemetry.Key(component, "desired_rpm")]
	actual := res.Series[telemetry.Key(component, "actual_rpm")]
	n := min(len(desired), len(actual))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = desired[i] - actual[i]
	}
	return out
}

// Oscillation analyzes the last tail fraction of the run, where a settled
// loop should be quiet.
func Oscillation(res *sim.Result, component string, tail float64) (hz, amplitude float64) {
	e := TrackingError(res, component)
	if len(e) < 4 || len(res.Times) < 2 {
		return 0, 0
	}
	tail = math.Max(0, math.Min(1, tail))
	start := len(e) - int(float64(len(e))*tail)
	start = min(start, len(e)-2)
	dt := res.Times[1] - res.Times[0]
	return DominantFrequency(e[start:], dt)
}
