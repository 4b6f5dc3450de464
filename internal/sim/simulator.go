package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/fvm"
	"github.com/san-kum/cablesim/internal/mechanism"
	"github.com/san-kum/cablesim/internal/spike"
	"go.uber.org/zap"
)

type Simulator struct {
	reg     *mechanism.Registry
	metrics []Metric
	logger  *zap.Logger
}

type Option func(*Simulator)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics ...Metric) Option {
	return func(s *Simulator) {
		s.metrics = append(s.metrics, metrics...)
	}
}

func New(reg *mechanism.Registry, opts ...Option) *Simulator {
	s := &Simulator{
		reg:    reg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Simulator) Registry() *mechanism.Registry { return s.reg }

// Run simulates c for cfg.Duration ms, recording every probe once before
// the first step and once after each step. Cancellation is checked
// between steps; a cancelled run returns the samples recorded so far
// together with ctx.Err().
func (s *Simulator) Run(ctx context.Context, c *cell.Cell, probes []Probe, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateProbes(probes); err != nil {
		return nil, err
	}

	model, err := fvm.New(c, s.reg, fvm.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		Compartments: model.Size(),
		Probes:       make(map[string]int, len(probes)),
		Times:        make([]float64, 0, steps+1),
		Traces:       make(map[string][]float64, len(probes)),
		Spikes:       make(map[string][]float64, len(probes)),
		Metrics:      make(map[string]float64, len(s.metrics)),
	}
	for _, p := range probes {
		idx, err := model.Locate(p.Location)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", p.Name, err)
		}
		result.Probes[p.Name] = idx
		result.Traces[p.Name] = make([]float64, 0, steps+1)
	}
	for _, m := range s.metrics {
		m.Reset()
		if b, ok := m.(Binder); ok {
			if err := b.Bind(model.Locate); err != nil {
				return nil, fmt.Errorf("metric %s: %w", m.Name(), err)
			}
		}
	}

	model.SetVoltage(cfg.InitialVoltage)
	if err := model.Initialize(); err != nil {
		return nil, err
	}

	v := buffers.get(model.Size())
	defer buffers.put(v)

	record := func(i int) {
		t := float64(i) * cfg.Dt
		model.CopyVoltage(v)
		result.Times = append(result.Times, t)
		for _, p := range probes {
			result.Traces[p.Name] = append(result.Traces[p.Name], v[result.Probes[p.Name]])
		}
		for _, m := range s.metrics {
			m.Observe(v, t)
		}
	}

	s.logger.Debug("run started",
		zap.Int("compartments", model.Size()),
		zap.Int("steps", steps),
		zap.Float64("dt", cfg.Dt),
	)

	record(0)
	var runErr error
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := model.Advance(cfg.Dt); err != nil {
			runErr = fmt.Errorf("run with %d compartments: %w", model.Size(), err)
			break
		}
		result.StepsTaken++
		record(i + 1)
	}

	for _, p := range probes {
		result.Spikes[p.Name] = spike.Find(result.Traces[p.Name], p.Threshold, cfg.Dt)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if runErr != nil {
		return result, runErr
	}

	s.logger.Debug("run finished",
		zap.Int("compartments", model.Size()),
		zap.Int("steps", result.StepsTaken),
	)
	return result, nil
}

// Run is a one-shot helper around Simulator.Run.
func Run(ctx context.Context, c *cell.Cell, reg *mechanism.Registry, probes []Probe, cfg Config, metrics ...Metric) (*Result, error) {
	return New(reg, WithMetrics(metrics...)).Run(ctx, c, probes, cfg)
}
