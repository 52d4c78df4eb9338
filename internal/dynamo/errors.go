package dynamo

import (
	"errors"
	"fmt"
)

// Configuration errors. All of them are raised at construction time; the
// tick path never fails.
var (
	// ErrGearRatio indicates a zero or non-finite gear ratio.
	ErrGearRatio = errors.New("dynamo: gear ratio must be finite and non-zero")

	// ErrTableTooShort indicates a setpoint table with fewer than two breakpoints.
	ErrTableTooShort = errors.New("dynamo: setpoint table needs at least two breakpoints")

	// ErrTableOrder indicates breakpoints not strictly increasing in distance.
	ErrTableOrder = errors.New("dynamo: setpoint table distances must be strictly increasing")

	// ErrNonFinite indicates a NaN or Inf constant.
	ErrNonFinite = errors.New("dynamo: value must be finite")

	// ErrCurveSlopes indicates a dual slope curve with equal slopes.
	ErrCurveSlopes = errors.New("dynamo: slow and fast slopes must differ")

	ErrCurveExponent = errors.New("dynamo: curve exponent must be positive")
	ErrTolerance     = errors.New("dynamo: tolerance must be finite and non-negative")
	ErrUnknownCurve  = errors.New("dynamo: unknown response curve")
	ErrUnknownParam  = errors.New("dynamo: unknown parameter")
	ErrNoTable       = errors.New("dynamo: velocity controller requires a setpoint table")
	ErrNoMotor       = errors.New("dynamo: component requires a motor")
	ErrPeriod        = errors.New("dynamo: loop period must be positive")
	ErrOutputRange   = errors.New("dynamo: open loop output must be within [-1, 1]")
)

// ConfigError ties a configuration error to the field that caused it.
type ConfigError struct {
	Field   string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
