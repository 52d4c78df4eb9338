// Package analysis inspects recorded runs in the frequency domain.
//
// A loop with too much gain rings around its setpoint instead of settling.
// [Oscillation] finds the dominant frequency of the tracking error over the
// tail of a run:
//
//	hz, amp := analysis.Oscillation(res, "flywheel", 0.5)
//	if amp > tolerance {
//	    // still ringing at hz
//	}
package analysis
