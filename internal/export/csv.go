// Package export writes recorded loop runs in interchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/san-kum/mechctl/internal/sim"
)

// Columns returns the series names of res in a stable order.
func Columns(res *sim.Result) []string {
	cols := make([]string, 0, len(res.Series))
	for k := range res.Series {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// WriteCSV writes one row per recorded tick, time first.
func WriteCSV(w io.Writer, res *sim.Result) error {
	cols := Columns(res)
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"time"}, cols...)); err != nil {
		return err
	}

	row := make([]string, len(cols)+1)
	for i, t := range res.Times {
		row[0] = strconv.FormatFloat(t, 'f', 4, 64)
		for j, c := range cols {
			row[j+1] = strconv.FormatFloat(res.Series[c][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type summary struct {
	Steps   int                `json:"steps"`
	Final   map[string]float64 `json:"final"`
	Metrics map[string]float64 `json:"metrics"`
}

// WriteSummary writes the metrics and last recorded values as JSON.
func WriteSummary(w io.Writer, res *sim.Result) error {
	s := summary{Steps: res.Steps, Final: map[string]float64{}, Metrics: res.Metrics}
	for k, v := range res.Series {
		if len(v) > 0 {
			s.Final[k] = v[len(v)-1]
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
