// Package telemetry collects the named values components publish each tick.
package telemetry

import (
	"sort"
	"strings"
	"sync"

	"github.com/san-kum/mechctl/internal/dynamo"
)

// Table holds the latest value for every key, in the manner of a network
// table. It is safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	values map[string]float64
}

func NewTable() *Table {
	return &Table{values: make(map[string]float64)}
}

func (t *Table) PutNumber(key string, value float64) {
	t.mu.Lock()
	t.values[key] = value
	t.mu.Unlock()
}

// GetNumber returns def when key has never been published.
func (t *Table) GetNumber(key string, def float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if v, ok := t.values[key]; ok {
		return v
	}
	return def
}

func (t *Table) Snapshot() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Keys returns every key in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.values)
}

// Sub returns a sink that publishes under prefix, e.g.
// Sub("/components/flywheel") turns "feedforward" into
// "/components/flywheel/feedforward".
func (t *Table) Sub(prefix string) dynamo.TelemetrySink {
	return &subTable{table: t, prefix: strings.TrimSuffix(prefix, "/") + "/"}
}

type subTable struct {
	table  *Table
	prefix string
}

func (s *subTable) PutNumber(key string, value float64) {
	s.table.PutNumber(s.prefix+key, value)
}

// ComponentPrefix is the table path a component publishes under.
func ComponentPrefix(name string) string {
	return "/components/" + strings.ToLower(name)
}

// Key joins a component prefix and a key.
func Key(component, key string) string {
	return ComponentPrefix(component) + "/" + key
}

func sortedKeys(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
