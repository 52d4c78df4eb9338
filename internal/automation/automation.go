// Package automation runs batches of flywheel experiments: scripted
// scenarios, parameter sweeps, Monte Carlo robustness trials and gain tuning.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/mechctl/internal/config"
	"github.com/san-kum/mechctl/internal/experiment"
	"github.com/san-kum/mechctl/internal/optim"
	"github.com/san-kum/mechctl/internal/sim"
	"github.com/san-kum/mechctl/internal/telemetry"
	"gopkg.in/yaml.v3"
)

// Scenario is a named command script run against a preset.
type Scenario struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Preset      string               `yaml:"preset"`
	Duration    float64              `yaml:"duration"`
	Params      map[string]float64   `yaml:"params"`
	Commands    []experiment.Command `yaml:"commands"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	for i, c := range scenario.Commands {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s: command %d: %w", path, i+1, err)
		}
	}
	return &scenario, nil
}

// Config resolves the scenario's preset and parameters over base.
func (s *Scenario) Config(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("scenario %s: unknown preset %s", s.Name, s.Preset)
		}
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the scenario's commands in one experiment.
func RunScenario(ctx context.Context, s *Scenario, base *config.Config, logger *log.Logger) (*sim.Result, error) {
	cfg, err := s.Config(base)
	if err != nil {
		return nil, err
	}
	logger = orDefault(logger)
	logger.Info("scenario", "name", s.Name, "commands", len(s.Commands))
	return runOnce(ctx, cfg, s.Commands, quiet(logger))
}

// Sweep varies one configuration parameter over a linear range.
type Sweep struct {
	Param    string
	Min, Max float64
	Steps    int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
	Err     error
}

// RunSweep runs cmds once per swept value. A run that fails is reported in
// its result rather than ending the sweep.
func RunSweep(ctx context.Context, base *config.Config, sw Sweep, cmds []experiment.Command, logger *log.Logger) ([]SweepResult, error) {
	if sw.Steps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sw.Steps)
	}
	if err := base.Clone().SetParam(sw.Param, sw.Min); err != nil {
		return nil, err
	}
	logger = orDefault(logger)

	values := optim.Linspace(sw.Min, sw.Max, sw.Steps)
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		cfg := base.Clone()
		_ = cfg.SetParam(sw.Param, v)

		r := SweepResult{Value: v}
		res, err := runOnce(ctx, cfg, cmds, quiet(logger))
		if err != nil {
			r.Err = err
		} else {
			r.Metrics = res.Metrics
		}
		results = append(results, r)
		logger.Info("sweep", "step", fmt.Sprintf("%d/%d", i+1, len(values)), sw.Param, v)
	}
	return results, nil
}

// MonteCarloConfig perturbs the flywheel plant away from its
// characterization to see whether the controller still converges.
type MonteCarloConfig struct {
	// Perturbation is the largest relative error applied to each constant.
	Perturbation float64
	NumTrials    int
	Seed         int64
	Setpoint     float64
}

type MonteCarloResult struct {
	TrialID  int
	Plant    config.MotorModel
	FinalRPM float64
	Settled  bool
	Metrics  map[string]float64
}

// RunMonteCarlo executes NumTrials runs, each against a plant whose constants
// are scaled by a random factor in [1-p, 1+p].
func RunMonteCarlo(ctx context.Context, base *config.Config, mc *MonteCarloConfig, logger *log.Logger) ([]MonteCarloResult, error) {
	if mc.Perturbation < 0 || mc.Perturbation >= 1 {
		return nil, fmt.Errorf("perturbation must be in [0, 1), got %v", mc.Perturbation)
	}
	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger = orDefault(logger)
	scale := func() float64 { return 1 + (rng.Float64()-0.5)*2*mc.Perturbation }

	cmds := []experiment.Command{{Kind: experiment.CmdVelocity, Value: mc.Setpoint}}
	actualKey := telemetry.Key(experiment.FlywheelName, "actual_rpm")
	results := make([]MonteCarloResult, 0, mc.NumTrials)
	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := base.Clone()
		p := &cfg.Flywheel.Plant
		p.Ks *= scale()
		p.Kv *= scale()
		p.Ka *= scale()

		res, err := runOnce(ctx, cfg, cmds, quiet(logger))
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		final := math.NaN()
		if s := res.Series[actualKey]; len(s) > 0 {
			final = s[len(s)-1]
		}
		results = append(results, MonteCarloResult{
			TrialID:  trial,
			Plant:    *p,
			FinalRPM: final,
			Settled:  math.Abs(mc.Setpoint-final) <= mc.Setpoint*cfg.Flywheel.Tolerance,
			Metrics:  res.Metrics,
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo", "complete", trial+1, "trials", mc.NumTrials)
		}
	}
	return results, nil
}

// MonteCarloStats counts trials that ended within tolerance.
func MonteCarloStats(results []MonteCarloResult) (settled int, unsettled int) {
	for _, r := range results {
		if r.Settled {
			settled++
		} else {
			unsettled++
		}
	}
	return
}

// TuneGains grid searches the named parameters for the best value of metric
// over a run of cmds and returns that value as the metric reports it.
// at_setpoint_ratio is maximized, every other metric minimized.
func TuneGains(ctx context.Context, base *config.Config, grid *optim.GridSearch, metric string, cmds []experiment.Command, logger *log.Logger) (map[string]float64, float64, error) {
	best, score, err := grid.Search(ctx, func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.SetParam(k, v); err != nil {
				return 0, err
			}
		}
		res, err := runOnce(ctx, cfg, cmds, quiet(logger))
		if err != nil {
			return 0, err
		}
		v, ok := res.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("unknown metric: %s", metric)
		}
		switch metric {
		case "at_setpoint_ratio":
			return -v, nil
		case "settling_time":
			if v < 0 {
				return math.Inf(1), nil
			}
		}
		return v, nil
	})
	if err != nil {
		return best, score, err
	}
	switch {
	case metric == "at_setpoint_ratio":
		score = -score
	case metric == "settling_time" && math.IsInf(score, 1):
		score = -1
	}
	return best, score, nil
}

func runOnce(ctx context.Context, cfg *config.Config, cmds []experiment.Command, logger *log.Logger) (*sim.Result, error) {
	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return exp.Run(ctx, cmds)
}

// quiet keeps per-run enable/disable chatter out of batch output.
func quiet(logger *log.Logger) *log.Logger {
	logger = orDefault(logger)
	l := logger.With()
	l.SetLevel(max(log.WarnLevel, logger.GetLevel()))
	return l
}

func orDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Default()
	}
	return logger
}
