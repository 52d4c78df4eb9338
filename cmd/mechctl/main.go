package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mechctl/internal/analysis"
	"github.com/san-kum/mechctl/internal/automation"
	"github.com/san-kum/mechctl/internal/config"
	"github.com/san-kum/mechctl/internal/experiment"
	"github.com/san-kum/mechctl/internal/export"
	"github.com/san-kum/mechctl/internal/logging"
	"github.com/san-kum/mechctl/internal/optim"
	"github.com/san-kum/mechctl/internal/shaping"
	"github.com/san-kum/mechctl/internal/sim"
	"github.com/san-kum/mechctl/internal/telemetry"
	"github.com/san-kum/mechctl/internal/units"
	"github.com/san-kum/mechctl/internal/viz"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	logLevel   string
	logFile    string

	rpm        float64
	distanceFt float64
	duration   float64
	period     float64
	integrator string
	stopAt     float64
	hoist      bool
	script     []string
	format     string

	out       string
	plotCurve bool
	tableStep float64

	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	trials      int
	perturb     float64
	seed        int64
	tuneParams  []string
	tuneMetric  string
	tunePoints  int
	tuneWorkers int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mechctl",
		Short:         "flywheel velocity control lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also log to a rotating file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "spin up the flywheel and report how it tracked",
		RunE:  runExperiment,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&format, "format", "text", "text, csv or json")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "write a PNG of a run or of the joystick curve",
		RunE:  plotExperiment,
	}
	addRunFlags(plotCmd)
	plotCmd.Flags().StringVarP(&out, "out", "o", "flywheel.png", "output image")
	plotCmd.Flags().BoolVar(&plotCurve, "curve", false, "plot the joystick curve instead")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive the simulated mechanisms from the terminal",
		RunE:  runLive,
	}

	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "print the distance to speed table",
		RunE:  printTable,
	}
	tableCmd.Flags().Float64Var(&tableStep, "step", 0.5, "interpolation step in feet")

	curveCmd := &cobra.Command{
		Use:   "curve",
		Short: "graph the joystick response curve",
		RunE:  printCurve,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVar(&format, "format", "text", "text, csv or json")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter and compare metrics",
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "flywheel.plant.kv", "parameter to sweep (see config params)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.0018, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.0026, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "check convergence against randomly mischaracterized plants",
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "largest relative plant error")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search closed-loop gains",
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", []string{"flywheel.gains.p=0:0.001", "flywheel.gains.i=0:0.002"}, "name=lo:hi range to search")
	tuneCmd.Flags().IntVar(&tunePoints, "points", 5, "values per parameter")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "tracking_rmse", "metric to minimize")
	tuneCmd.Flags().IntVar(&tuneWorkers, "workers", 0, "parallel runs, 0 for one per CPU")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list parameters accepted by sweep, tune and scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ParamNames() {
				fmt.Println(p)
			}
		},
	}

	rootCmd.AddCommand(runCmd, plotCmd, liveCmd, tableCmd, curveCmd, presetsCmd, configCmd,
		scenarioCmd, sweepCmd, monteCarloCmd, tuneCmd, paramsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&rpm, "rpm", 4200, "flywheel setpoint")
	cmd.Flags().Float64Var(&distanceFt, "distance", 0, "shot distance in feet, overrides --rpm")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().Float64Var(&period, "period", config.DefaultPeriod, "loop period in seconds")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "plant integrator")
	cmd.Flags().Float64Var(&stopAt, "stop-at", 0, "stop the flywheel at this time")
	cmd.Flags().BoolVar(&hoist, "hoist", false, "run the winch as well")
	cmd.Flags().StringArrayVar(&script, "cmd", nil, `extra commands as "t:kind[=value]"`)
}

func newLogger() (*log.Logger, error) {
	return logging.New(logging.Options{Level: logLevel, File: logFile})
}

// loadConfig applies the preset, then the config file, then any flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("period") {
		cfg.Period = period
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	return cfg, cfg.Validate()
}

func commands() ([]experiment.Command, error) {
	var cmds []experiment.Command
	if distanceFt > 0 {
		cmds = append(cmds, experiment.Command{Kind: experiment.CmdDistance, Value: units.FeetToMeters(distanceFt)})
	} else {
		cmds = append(cmds, experiment.Command{Kind: experiment.CmdVelocity, Value: rpm})
	}
	if stopAt > 0 {
		cmds = append(cmds, experiment.Command{At: stopAt, Kind: experiment.CmdStop})
	}
	if hoist {
		cmds = append(cmds, experiment.Command{Kind: experiment.CmdHoist})
	}
	for _, s := range script {
		c, err := experiment.ParseCommand(s)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func execute(cmd *cobra.Command) (*sim.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	cmds, err := commands()
	if err != nil {
		return nil, err
	}
	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return exp.Run(ctx, cmds)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	res, err := execute(cmd)
	if err != nil {
		return err
	}
	return report(res)
}

func report(res *sim.Result) error {
	switch format {
	case "csv":
		return export.WriteCSV(os.Stdout, res)
	case "json":
		return export.WriteSummary(os.Stdout, res)
	case "text":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	actual := res.Series[telemetry.Key(experiment.FlywheelName, "actual_rpm")]
	if len(actual) > 1 {
		fmt.Println(asciigraph.Plot(actual,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("flywheel rpm"),
		))
		fmt.Println()
	}

	fmt.Printf("steps: %d\n", res.Steps)
	if len(actual) > 0 {
		fmt.Printf("final rpm: %.1f\n", actual[len(actual)-1])
	}
	if hz, amp := analysis.Oscillation(res, experiment.FlywheelName, 0.5); amp > 0 {
		fmt.Printf("oscillation: %.2f Hz, %.1f rpm\n", hz, amp)
	}
	names := make([]string, 0, len(res.Metrics))
	for k := range res.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range names {
		fmt.Fprintf(w, "%s\t%.4f\n", k, res.Metrics[k])
	}
	return w.Flush()
}

func plotExperiment(cmd *cobra.Command, args []string) error {
	if plotCurve {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := cfg.Curve()
		if err != nil {
			return err
		}
		if err := viz.SaveCurve(c, out); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
		return nil
	}

	res, err := execute(cmd)
	if err != nil {
		return err
	}
	if err := viz.SaveResponse(res, experiment.FlywheelName, out); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if logFile == "" {
		// The terminal belongs to the live view.
		logLevel = "error"
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(exp), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func printTable(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tbl, err := cfg.SetpointTable()
	if err != nil {
		return err
	}
	if tableStep <= 0 {
		return fmt.Errorf("step must be positive, got %v", tableStep)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEET\tMETRES\tRPM\t")
	lo, hi := tbl.Range()
	for ft := units.MetersToFeet(lo); ft <= units.MetersToFeet(hi)+1e-9; ft += tableStep {
		m := units.FeetToMeters(ft)
		fmt.Fprintf(w, "%.1f\t%.3f\t%.0f\t\n", ft, m, tbl.Interpolate(m))
	}
	return w.Flush()
}

func printCurve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := cfg.Curve()
	if err != nil {
		return err
	}

	_, ys := shaping.Sample(c, 81)
	fmt.Println(asciigraph.Plot(ys,
		asciigraph.Height(12),
		asciigraph.Width(81),
		asciigraph.Caption(fmt.Sprintf("%s response over [-1, 1]", cfg.Joystick.Kind)),
	))
	if pw, ok := c.(*shaping.Piecewise); ok {
		fmt.Printf("intersection: %.4f\n", pw.Intersection())
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if sc.Description != "" {
		fmt.Printf("%s: %s\n\n", sc.Name, sc.Description)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := automation.RunScenario(ctx, sc, cfg, logger)
	if err != nil {
		return err
	}
	return report(res)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cmds, err := commands()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sw := automation.Sweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	results, err := automation.RunSweep(ctx, cfg, sw, cmds, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(sweepParam)+"\tSETTLING\tAT_SETPOINT\tRMSE\tOVERSHOOT\t")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%.6g\t%v\t\t\t\t\n", r.Value, r.Err)
			continue
		}
		m := r.Metrics
		fmt.Fprintf(w, "%.6g\t%.3f\t%.3f\t%.1f\t%.3f\t\n",
			r.Value, m["settling_time"], m["at_setpoint_ratio"], m["tracking_rmse"], m["overshoot"])
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	mc := &automation.MonteCarloConfig{Perturbation: perturb, NumTrials: trials, Seed: seed, Setpoint: rpm}
	results, err := automation.RunMonteCarlo(ctx, cfg, mc, logger)
	if err != nil {
		return err
	}

	settled, unsettled := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d\nsettled: %d\nunsettled: %d\n", len(results), settled, unsettled)
	for _, r := range results {
		if !r.Settled {
			fmt.Printf("  trial %d: ks=%.4f kv=%.6f ka=%.6f final=%.0f rpm\n",
				r.TrialID, r.Plant.Ks, r.Plant.Kv, r.Plant.Ka, r.FinalRPM)
		}
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cmds, err := commands()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, p := range tuneParams {
		name, lo, hi, err := parseRange(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(lo, hi, tunePoints))
	}
	grid := optim.NewGridSearch(names, ranges).Workers(tuneWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger.Info("tuning", "points", len(grid.Points()), "metric", tuneMetric)
	best, score, err := automation.TuneGains(ctx, cfg, grid, tuneMetric, cmds, logger)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %.4f\n", tuneMetric, score)
	for _, n := range names {
		fmt.Printf("  %s = %.6g\n", n, best[n])
	}
	return nil
}

// parseRange reads "name=lo:hi".
func parseRange(s string) (string, float64, float64, error) {
	name, r, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, 0, fmt.Errorf("range %q: want name=lo:hi", s)
	}
	loStr, hiStr, ok := strings.Cut(r, ":")
	if !ok {
		return "", 0, 0, fmt.Errorf("range %q: want name=lo:hi", s)
	}
	lo, err := strconv.ParseFloat(loStr, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(hiStr, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	return name, lo, hi, nil
}
