package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/san-kum/cablesim/internal/config"
	"github.com/san-kum/cablesim/internal/experiment"
	"github.com/san-kum/cablesim/internal/sim"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyScenario = errors.New("automation: scenario has no steps")
	ErrUnknownParam  = errors.New("automation: unknown sweep parameter")
	ErrInvalidSweep  = errors.New("automation: invalid sweep")
	ErrUnknownPreset = errors.New("automation: unknown preset")
	ErrUnknownProbe  = errors.New("automation: unknown probe")
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides the base configuration for one run. Zero values
// keep the base value.
type ScenarioStep struct {
	Model        string   `yaml:"model"`
	Preset       string   `yaml:"preset"`
	Compartments int      `yaml:"compartments"`
	Dt           float64  `yaml:"dt"`
	Duration     float64  `yaml:"duration"`
	Amplitude    *float64 `yaml:"amplitude"`
	Celsius      *float64 `yaml:"celsius"`
	SaveAs       string   `yaml:"save_as"`
}

// StepResult is one finished scenario step.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
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
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyScenario, path)
	}

	return &scenario, nil
}

// Apply returns the configuration of the step layered over base.
func (s ScenarioStep) Apply(base *config.Config) (*config.Config, error) {
	model := base.Model
	if s.Model != "" {
		model = s.Model
	}

	var cfg *config.Config
	if s.Preset != "" {
		cfg = config.GetPreset(model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownPreset, model, s.Preset)
		}
		cfg.Store = base.Store
		cfg.Workers = base.Workers
		cfg.LogLevel = base.LogLevel
	} else {
		cfg = base.Clone()
	}
	cfg.Model = model

	if s.Compartments != 0 {
		cfg.Compartments = s.Compartments
	}
	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration != 0 {
		cfg.Duration = s.Duration
	}
	if s.Amplitude != nil {
		cfg.Stimulus.Amplitude = *s.Amplitude
	}
	if s.Celsius != nil {
		cfg.Celsius = *s.Celsius
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, logger *zap.Logger) ([]StepResult, error) {
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Apply(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s-%d", cfg.Model, i+1)
		}
		logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", name),
		)

		exp, err := experiment.New(cfg, experiment.WithLogger(logger))
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}

	return results, nil
}

// setters maps the sweepable parameters to the configuration field they
// change.
var setters = map[string]func(*config.Config, float64){
	"amplitude":       func(c *config.Config, v float64) { c.Stimulus.Amplitude = v },
	"delay":           func(c *config.Config, v float64) { c.Stimulus.Delay = v },
	"celsius":         func(c *config.Config, v float64) { c.Celsius = v },
	"soma_radius":     func(c *config.Config, v float64) { c.Soma.Radius = v },
	"dendrite_length": func(c *config.Config, v float64) { c.Dendrite.Length = v },
	"dendrite_radius": func(c *config.Config, v float64) { c.Dendrite.Radius = v },
	"r_l":             func(c *config.Config, v float64) { c.Dendrite.RL = v },
}

// SweepParams lists the parameters a ParameterSweep can vary.
func SweepParams() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	// Probe names the probe whose spikes are counted.
	Probe   string
	Workers int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Spikes     []float64
	// Rate is the firing rate in Hz over the stimulus window, or over the
	// whole run when the window is empty.
	Rate float64
	Peak float64
}

// Values returns the parameter values of the sweep, evenly spaced from
// ParamMin to ParamMax.
func (s *ParameterSweep) Values() ([]float64, error) {
	switch {
	case s.NumSteps < 1:
		return nil, fmt.Errorf("%w: %d steps", ErrInvalidSweep, s.NumSteps)
	case s.NumSteps == 1:
		return []float64{s.ParamMin}, nil
	case s.ParamMax < s.ParamMin:
		return nil, fmt.Errorf("%w: max %g below min %g", ErrInvalidSweep, s.ParamMax, s.ParamMin)
	}
	paramStep := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	values := make([]float64, s.NumSteps)
	for i := range values {
		values[i] = s.ParamMin + float64(i)*paramStep
	}
	return values, nil
}

// RunSweep executes a parameter sweep. Each value runs the base model
// independently on a bounded worker pool; results follow the order of
// Values.
func RunSweep(ctx context.Context, sweep *ParameterSweep, base *config.Config, logger *zap.Logger) ([]SweepResult, error) {
	set, ok := setters[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownParam, sweep.ParamName, SweepParams())
	}
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}
	probe, err := findProbe(base, sweep.Probe)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := sweep.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]SweepResult, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range values {
		g.Go(func() error {
			cfg := base.Clone()
			set(cfg, v)

			exp, err := experiment.New(cfg, experiment.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
			}
			res, err := exp.Run(gctx)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
			}

			spikes := res.Spikes[probe.Name]
			results[i] = SweepResult{
				ParamValue: v,
				Spikes:     spikes,
				Rate:       firingRate(spikes, cfg),
				Peak:       res.Metrics["peak_"+probe.Name],
			}
			logger.Debug("sweep point",
				zap.String("param", sweep.ParamName),
				zap.Float64("value", v),
				zap.Int("spikes", len(spikes)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FirstFiring returns the smallest swept value that produced a spike.
func FirstFiring(results []SweepResult) (float64, bool) {
	best, found := 0.0, false
	for _, r := range results {
		if len(r.Spikes) == 0 {
			continue
		}
		if !found || r.ParamValue < best {
			best, found = r.ParamValue, true
		}
	}
	return best, found
}

func findProbe(cfg *config.Config, name string) (sim.Probe, error) {
	if name == "" && len(cfg.Probes) > 0 {
		return cfg.Probes[0], nil
	}
	for _, p := range cfg.Probes {
		if p.Name == name {
			return p, nil
		}
	}
	return sim.Probe{}, fmt.Errorf("%w: %q", ErrUnknownProbe, name)
}

// firingRate counts the spikes inside the stimulus window clipped to the
// run.
func firingRate(spikes []float64, cfg *config.Config) float64 {
	start := cfg.Stimulus.Delay
	end := min(cfg.Stimulus.Delay+cfg.Stimulus.Duration, cfg.Duration)
	if cfg.Stimulus.Amplitude == 0 || end <= start {
		start, end = 0, cfg.Duration
	}
	n := 0
	for _, t := range spikes {
		if t >= start && t < end {
			n++
		}
	}
	return float64(n) * 1000 / (end - start)
}
