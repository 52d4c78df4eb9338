package telemetry

import (
	"github.com/charmbracelet/log"
)

// Logger writes a sample of the telemetry to a structured log every n ticks.
// It satisfies the loop's observer contract.
type Logger struct {
	log   *log.Logger
	keys  []string
	every int
	count int
}

// NewLogger logs the given keys; an empty list logs everything published.
func NewLogger(logger *log.Logger, every int, keys ...string) *Logger {
	if every < 1 {
		every = 1
	}
	return &Logger{log: logger, keys: keys, every: every}
}

func (l *Logger) OnTick(t float64, values map[string]float64) {
	l.count++
	if l.count%l.every != 0 {
		return
	}

	kv := []interface{}{"t", t}
	if len(l.keys) == 0 {
		for _, k := range sortedKeys(values) {
			kv = append(kv, k, values[k])
		}
	} else {
		for _, k := range l.keys {
			if v, ok := values[k]; ok {
				kv = append(kv, k, v)
			}
		}
	}
	l.log.Debug("telemetry", kv...)
}
