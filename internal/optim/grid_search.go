// Package optim searches parameter grids for the lowest scoring point.
package optim

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"
)

// Objective scores one grid point. Lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}
}

// Workers bounds the number of points evaluated at once.
func (g *GridSearch) Workers(n int) *GridSearch {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Points enumerates the grid in row-major order, last parameter fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, val := range g.ranges[depth] {
		current[g.paramNames[depth]] = val
		g.enumerate(depth+1, current, out)
	}
}

// Search evaluates every point and returns the best. Points whose objective
// fails or is NaN are skipped; Search fails only if every point does.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, errors.New("optim: parameter and range counts differ")
	}
	points := g.Points()
	scores := make([]float64, len(points))
	errs := make([]error, len(points))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(g.workers, len(points)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scores[i], errs[i] = objective(ctx, points[i])
			}
		}()
	}

feed:
	for i := range points {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var firstErr error
	for i, s := range scores {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		if !math.IsNaN(s) && (bestParams == nil || s < best) {
			best = s
			bestParams = points[i]
		}
	}
	if bestParams == nil {
		if firstErr == nil {
			firstErr = errors.New("optim: no point produced a score")
		}
		return nil, 0, firstErr
	}
	return bestParams, best, nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
