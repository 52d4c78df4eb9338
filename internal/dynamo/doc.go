// Package dynamo defines the contracts shared by the mechanism control core
// and its collaborators.
//
// The control core only talks to the outside world through these types:
//
//   - [Actuator]: smart motor controller with an onboard velocity loop
//   - [TelemetrySink]: per-tick named numeric values
//   - [GainSource]: live tunable closed-loop [Gains]
//   - [Component]: lifecycle hooks driven by the outer fixed-rate loop
//
// [State], [System] and [Integrator] describe the plant models used by the
// simulator in place of real hardware.
//
// # Thread Safety
//
// Components are owned by a single loop and are NOT thread-safe.
package dynamo
