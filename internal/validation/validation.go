// Package validation compares simulated spike trains with reference
// fixtures across spatial resolutions.
package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/fixture"
	"github.com/san-kum/cablesim/internal/sim"
	"github.com/san-kum/cablesim/internal/spike"
)

// DefaultAccuracy bounds the max relative spike time error of the finest
// resolution (0.1 %).
const DefaultAccuracy = 1e-3

var (
	ErrNotConverging = errors.New("validation: error does not decrease with resolution")
	ErrInaccurate    = errors.New("validation: finest resolution exceeds error bound")
)

// Builder constructs a fresh cell with the given number of compartments
// per cable.
type Builder func(compartments int) (*cell.Cell, error)

// Outcome is the comparison of one resolution against the baseline.
type Outcome struct {
	Compartments int
	Spikes       map[string][]float64
	Comparisons  map[string]spike.Comparison
}

// Worst returns the probe with the largest max relative error.
func (o Outcome) Worst() (string, spike.Comparison) {
	var worst string
	var cmp spike.Comparison
	rel := math.Inf(-1)
	for _, name := range sortedProbes(o) {
		c := o.Comparisons[name]
		if c.MaxRelativeError() > rel {
			worst, cmp, rel = name, c, c.MaxRelativeError()
		}
	}
	return worst, cmp
}

type Options struct {
	// Duration of each run in ms.
	Duration       float64
	InitialVoltage float64
	Workers        int
	// OnDone is forwarded to the sweep.
	OnDone func(compartments int, res *sim.Result, err error)
}

func DefaultOptions() Options {
	cfg := sim.DefaultConfig()
	return Options{
		Duration:       cfg.Duration,
		InitialVoltage: cfg.InitialVoltage,
	}
}

// Compare simulates every resolution present in runs with the timestep of
// the finest run and compares each probe with the finest run's spikes.
// Probe thresholds come from the fixture. Outcomes are sorted by
// compartment count.
func Compare(ctx context.Context, s *sim.Simulator, runs []fixture.Run, build Builder, probes []sim.Probe, opts Options) ([]Outcome, error) {
	baseline, err := fixture.Finest(runs)
	if err != nil {
		return nil, err
	}

	bound := make([]sim.Probe, 0, len(probes))
	for _, p := range probes {
		m, ok := baseline.Measurements[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: baseline has no probe %q", fixture.ErrEmpty, p.Name)
		}
		p.Threshold = m.Threshold
		bound = append(bound, p)
	}

	counts := fixture.Resolutions(runs)
	results, err := s.Sweep(ctx, sim.Sweep{
		Build:  build,
		Counts: counts,
		Probes: bound,
		Config: sim.Config{
			Dt:             baseline.Dt,
			Duration:       opts.Duration,
			InitialVoltage: opts.InitialVoltage,
		},
		Workers: opts.Workers,
		OnDone:  opts.OnDone,
	})
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(counts))
	for i, res := range results {
		o := Outcome{
			Compartments: counts[i],
			Spikes:       res.Spikes,
			Comparisons:  make(map[string]spike.Comparison, len(bound)),
		}
		for _, p := range bound {
			o.Comparisons[p.Name] = spike.Compare(res.Spikes[p.Name], baseline.Measurements[p.Name].Spikes)
		}
		outcomes[i] = o
	}
	return outcomes, nil
}

// CheckConvergence requires the max relative error of every probe to
// decrease strictly from each resolution to the next.
func CheckConvergence(outcomes []Outcome) error {
	var errs []error
	for i := 1; i < len(outcomes); i++ {
		prev, cur := outcomes[i-1], outcomes[i]
		for _, name := range sortedProbes(cur) {
			a := prev.Comparisons[name].MaxRelativeError()
			b := cur.Comparisons[name].MaxRelativeError()
			if !(b < a) {
				errs = append(errs, fmt.Errorf("%w: %s at %d compartments %.4g, at %d compartments %.4g",
					ErrNotConverging, name, prev.Compartments, a, cur.Compartments, b))
			}
		}
	}
	return errors.Join(errs...)
}

// CheckAccuracy requires every probe of the finest resolution to have a
// max relative error below bound.
func CheckAccuracy(outcomes []Outcome, bound float64) error {
	if len(outcomes) == 0 {
		return fixture.ErrEmpty
	}
	finest := outcomes[len(outcomes)-1]
	var errs []error
	for _, name := range sortedProbes(finest) {
		if rel := finest.Comparisons[name].MaxRelativeError(); !(rel < bound) {
			errs = append(errs, fmt.Errorf("%w: %s at %d compartments %.4g >= %.4g",
				ErrInaccurate, name, finest.Compartments, rel, bound))
		}
	}
	return errors.Join(errs...)
}

// Baseline simulates build at the given resolution and records its spikes
// as a fixture run.
func Baseline(ctx context.Context, s *sim.Simulator, build Builder, compartments int, probes []sim.Probe, cfg sim.Config) (fixture.Run, error) {
	c, err := build(compartments)
	if err != nil {
		return fixture.Run{}, err
	}
	res, err := s.Run(ctx, c, probes, cfg)
	if err != nil {
		return fixture.Run{}, err
	}
	return fixture.FromResult(compartments, cfg.Dt, res, probes), nil
}

func sortedProbes(o Outcome) []string {
	names := make([]string, 0, len(o.Comparisons))
	for name := range o.Comparisons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BallAndStickProbes are the three recording sites of the ball-and-stick
// scenario: the soma, the dendrite midpoint and the stimulated tip.
func BallAndStickProbes() []sim.Probe {
	return []sim.Probe{
		{Name: "soma", Location: cell.Location{Segment: 0, Position: 0}, Threshold: sim.DefaultThreshold},
		{Name: "dend", Location: cell.Location{Segment: 1, Position: 0.5}, Threshold: sim.DefaultThreshold},
		{Name: "clamp", Location: cell.Location{Segment: 1, Position: 1}, Threshold: sim.DefaultThreshold},
	}
}
