// Package metrics summarizes how well a velocity controller tracked its
// setpoint over a run. Every metric reads the telemetry a component
// publishes each tick.
package metrics
