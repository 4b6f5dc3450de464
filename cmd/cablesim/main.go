package main

import (
	"fmt"
	"os"

	"github.com/san-kum/cablesim/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir    string
	storeKind  string
	configFile string
	preset     string
	logLevel   string
	workers    int

	nseg     int
	dt       float64
	duration float64
	v0       float64
	counts   []int
	celsius  float64
	swcPath  string

	noStore     bool
	plotProbe   string
	showProbe   string
	fixturePath string
	outPath     string
	useTUI      bool
	asJSON      bool
	svgPath     string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	sweepProbe string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cablesim",
		Short:         "finite volume single neuron simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cablesim", "run store path (directory or sqlite file)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", config.DefaultStoreKind, "run store backend: file, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel runs (0 uses all CPUs)")

	addModelFlags := func(cmd *cobra.Command) {
		cmd.Flags().IntVar(&nseg, "nseg", config.DefaultCompartments, "compartments per cable")
		cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (ms)")
		cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (ms)")
		cmd.Flags().Float64Var(&v0, "v0", config.DefaultInitialVoltage, "initial voltage (mV)")
		cmd.Flags().Float64Var(&celsius, "celsius", config.DefaultCelsius, "temperature (°C)")
		cmd.Flags().StringVar(&swcPath, "morphology", "", "swc morphology file for the swc model")
	}

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run one simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the run")
	runCmd.Flags().StringVar(&plotProbe, "plot", "", "plot the trace of a probe")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run one simulation per resolution",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().IntSliceVar(&counts, "counts", nil, "compartment counts")
	sweepCmd.Flags().BoolVar(&useTUI, "tui", false, "show interactive progress")
	sweepCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the runs")

	validateCmd := &cobra.Command{
		Use:   "validate [model]",
		Short: "compare spike times with a reference fixture",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}
	addModelFlags(validateCmd)
	validateCmd.Flags().StringVar(&fixturePath, "fixture", "", "reference fixture (json)")

	baselineCmd := &cobra.Command{
		Use:   "baseline [model]",
		Short: "write a reference fixture from simulator runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBaseline,
	}
	addModelFlags(baselineCmd)
	baselineCmd.Flags().IntSliceVar(&counts, "counts", nil, "compartment counts")
	baselineCmd.Flags().StringVarP(&outPath, "out", "o", "", "fixture output path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&showProbe, "probe", "soma", "probe to plot")
	showCmd.Flags().BoolVar(&asJSON, "json", false, "export the run as json")
	showCmd.Flags().StringVar(&svgPath, "svg", "", "write the traces to an svg file")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of configured steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the runs")

	fiCmd := &cobra.Command{
		Use:   "fi [model]",
		Short: "sweep one parameter and report the firing rate",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFiringCurve,
	}
	addModelFlags(fiCmd)
	fiCmd.Flags().StringVar(&sweepParam, "param", "amplitude", "parameter to sweep")
	fiCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	fiCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "last value")
	fiCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")
	fiCmd.Flags().StringVar(&sweepProbe, "probe", "soma", "probe whose spikes are counted")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := config.ListModels()
			if len(args) > 0 {
				models = args
			}
			for _, m := range models {
				presets := config.ListPresets(m)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", m)
					continue
				}
				fmt.Printf("presets for %s:\n", m)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, validateCmd, baselineCmd, listCmd, showCmd, presetsCmd, scenarioCmd, fiCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// resolveConfig layers the preset, the config file and changed flags over
// the defaults, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Model = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Model = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("nseg") {
		cfg.Compartments = nseg
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("v0") {
		cfg.InitialVoltage = v0
	}
	if flags.Changed("celsius") {
		cfg.Celsius = celsius
	}
	if flags.Changed("morphology") {
		cfg.Morphology = swcPath
	}
	if flags.Changed("counts") {
		cfg.Sweep = counts
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("fixture") {
		cfg.Fixture = fixturePath
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("store") || cfg.Store.Kind == "" {
		cfg.Store.Kind = storeKind
	}
	if flags.Changed("data") || cfg.Store.Path == "" || cfg.Store.Path == config.DefaultStorePath {
		cfg.Store.Path = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
