package metrics

import "github.com/san-kum/mechctl/internal/sim"

// Defaults returns the metrics reported for a velocity controlled component.
func Defaults(component string) []sim.Metric {
	return []sim.Metric{
		NewSettlingTime(component),
		NewAtSetpointRatio(component),
		NewTrackingRMSE(component),
		NewOvershoot(component),
		NewControlEffort(component),
	}
}
