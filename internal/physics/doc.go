// Package physics provides plant models that stand in for real mechanisms
// when the control loop runs against the simulator.
//
// Each model implements [dynamo.System] and [dynamo.Configurable] for
// runtime parameter adjustment.
package physics
