// Package viz renders the mechanism loop for people: a Bubble Tea live
// console for driving the flywheel by hand and PNG reports of recorded runs.
//
// # Key Bindings
//
//	E       - Enable/Disable the loop
//	Up/K    - Raise the flywheel setpoint
//	Down/J  - Lower the flywheel setpoint
//	[ ]     - Shorter/Longer shot distance
//	S       - Stop the flywheel
//	H       - Toggle the winch
//	Tab     - Cycle closed-loop gains
//	+ -     - Scale the selected gain (applied on the next enable)
//	?       - Show help overlay
package viz
