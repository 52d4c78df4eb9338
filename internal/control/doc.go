// Package control implements the mechanism components driven by the fixed
// rate control loop.
//
//   - [Velocity]: closed-loop velocity controller with motor feedforward,
//     distance scheduling and tolerance based readiness
//   - [Winch]: open-loop hoist
//   - [Tunables]: live tunable gains, re-read by [Velocity] on every enable
//
// # Usage
//
//	vc, err := control.NewVelocity(cfg, motor, tunables, sink)
//	vc.SetDistance(3.2) // metres
//	// the owning loop calls vc.Tick() once per period
//	if vc.IsReady() { ... }
//
// Components are not safe for concurrent use; the loop that owns them must
// be the only caller. [Tunables] may be written from anywhere.
package control
