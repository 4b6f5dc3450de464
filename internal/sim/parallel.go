package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/cablesim/internal/cell"
	"golang.org/x/sync/errgroup"
)

// Sweep describes one independent run per compartment count.
type Sweep struct {
	Build   func(compartments int) (*cell.Cell, error)
	Counts  []int
	Probes  []Probe
	Config  Config
	Workers int
	// Metrics returns fresh metrics for one run.
	Metrics func() []Metric
	// OnDone is called from worker goroutines as each run finishes.
	OnDone func(compartments int, res *Result, err error)
}

// Sweep runs every count on a bounded worker pool and returns the results
// in the order of sw.Counts. Each run builds its own cell and shares only
// the registry. The first failure cancels runs that have not started.
func (s *Simulator) Sweep(ctx context.Context, sw Sweep) ([]*Result, error) {
	if sw.Build == nil {
		return nil, fmt.Errorf("%w: sweep has no cell builder", ErrInvalidConfig)
	}
	if err := sw.Config.Validate(); err != nil {
		return nil, err
	}
	workers := sw.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(sw.Counts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, n := range sw.Counts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := sw.Build(n)
			if err != nil {
				return fmt.Errorf("build %d compartments: %w", n, err)
			}

			var opts []Option
			opts = append(opts, WithLogger(s.logger))
			if sw.Metrics != nil {
				opts = append(opts, WithMetrics(sw.Metrics()...))
			}
			res, err := New(s.reg, opts...).Run(gctx, c, sw.Probes, sw.Config)
			if sw.OnDone != nil {
				sw.OnDone(n, res, err)
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
