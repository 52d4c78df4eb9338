// Package units converts between a motor's native rotational rate and the
// rate of the mechanism it drives.
package units

import (
	"fmt"

	"github.com/san-kum/mechctl/internal/dynamo"
)

const MetersPerFoot = 0.3048

// GearRatio converts rates across a fixed gear reduction. The two factors
// are reciprocal by construction.
type GearRatio struct {
	inputsPerOutput float64
	outputsPerInput float64
}

// NewGearRatio builds a ratio from motor turns per mechanism turn.
func NewGearRatio(inputsPerOutput float64) (GearRatio, error) {
	if inputsPerOutput == 0 || !dynamo.Finite(inputsPerOutput) {
		return GearRatio{}, fmt.Errorf("inputs per output %v: %w", inputsPerOutput, dynamo.ErrGearRatio)
	}
	return GearRatio{
		inputsPerOutput: inputsPerOutput,
		outputsPerInput: 1 / inputsPerOutput,
	}, nil
}

// MustGearRatio is NewGearRatio for compile-time constants.
func MustGearRatio(inputsPerOutput float64) GearRatio {
	g, err := NewGearRatio(inputsPerOutput)
	if err != nil {
		panic(err)
	}
	return g
}

func (g GearRatio) InputsPerOutput() float64 { return g.inputsPerOutput }
func (g GearRatio) OutputsPerInput() float64 { return g.outputsPerInput }

// ToInternal maps a mechanism rate to the motor's native rate.
func (g GearRatio) ToInternal(x float64) float64 {
	return x * g.inputsPerOutput
}

// ToExternal maps a native motor rate to the mechanism rate.
func (g GearRatio) ToExternal(x float64) float64 {
	return x * g.outputsPerInput
}

func FeetToMeters(ft float64) float64 {
	return ft * MetersPerFoot
}

func MetersToFeet(m float64) float64 {
	return m / MetersPerFoot
}
