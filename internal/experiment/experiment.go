package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/config"
	"github.com/san-kum/cablesim/internal/fixture"
	"github.com/san-kum/cablesim/internal/sim"
	"github.com/san-kum/cablesim/internal/validation"
	"go.uber.org/zap"
)

// Experiment runs one configured model.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	build     Builder
	simulator *sim.Simulator
	logger    *zap.Logger
}

type Option func(*Experiment)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Experiment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) {
		if r != nil {
			e.registry = r
		}
	}
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Experiment{
		cfg:      cfg.Clone(),
		registry: NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	build, err := e.registry.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	e.build = build
	e.simulator = sim.New(cfg.Registry(), sim.WithLogger(e.logger))
	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Cell builds the configured cell with n compartments per cable.
func (e *Experiment) Cell(n int) (*cell.Cell, error) {
	return e.build(e.cfg, n)
}

// Builder binds the configuration to the model builder.
func (e *Experiment) Builder() validation.Builder {
	return func(n int) (*cell.Cell, error) {
		return e.build(e.cfg, n)
	}
}

// Run simulates the configured resolution with the default metrics.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	c, err := e.Cell(e.cfg.Compartments)
	if err != nil {
		return nil, err
	}
	s := sim.New(e.simulator.Registry(),
		sim.WithLogger(e.logger),
		sim.WithMetrics(e.registry.DefaultMetrics(e.cfg)...),
	)
	e.logger.Info("running",
		zap.String("model", e.cfg.Model),
		zap.Int("compartments", e.cfg.Compartments),
		zap.Float64("duration", e.cfg.Duration),
	)
	return s.Run(ctx, c, e.cfg.Probes, e.cfg.SimConfig())
}

// Sweep runs every configured resolution. onDone, if set, is called from
// worker goroutines as runs finish.
func (e *Experiment) Sweep(ctx context.Context, onDone func(n int, res *sim.Result, err error)) ([]*sim.Result, error) {
	counts := e.cfg.Counts()
	e.logger.Info("sweeping",
		zap.String("model", e.cfg.Model),
		zap.Ints("counts", counts),
		zap.Int("workers", e.cfg.Workers),
	)
	return e.simulator.Sweep(ctx, sim.Sweep{
		Build:   e.Builder(),
		Counts:  counts,
		Probes:  e.cfg.Probes,
		Config:  e.cfg.SimConfig(),
		Workers: e.cfg.Workers,
		Metrics: func() []sim.Metric { return e.registry.DefaultMetrics(e.cfg) },
		OnDone:  onDone,
	})
}

// Validate compares the model with a reference fixture.
func (e *Experiment) Validate(ctx context.Context, runs []fixture.Run, onDone func(n int, res *sim.Result, err error)) ([]validation.Outcome, error) {
	return validation.Compare(ctx, e.simulator, runs, e.Builder(), e.cfg.Probes, validation.Options{
		Duration:       e.cfg.Duration,
		InitialVoltage: e.cfg.InitialVoltage,
		Workers:        e.cfg.Workers,
		OnDone:         onDone,
	})
}

// Baseline runs each resolution and records the spikes as fixture runs.
func (e *Experiment) Baseline(ctx context.Context, counts []int) ([]fixture.Run, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no resolutions", fixture.ErrEmpty)
	}
	runs := make([]fixture.Run, 0, len(counts))
	for _, n := range counts {
		run, err := validation.Baseline(ctx, e.simulator, e.Builder(), n, e.cfg.Probes, e.cfg.SimConfig())
		if err != nil {
			return nil, err
		}
		e.logger.Info("baseline recorded", zap.Int("compartments", n), zap.Int("probes", len(run.Measurements)))
		runs = append(runs, run)
	}
	return runs, nil
}
