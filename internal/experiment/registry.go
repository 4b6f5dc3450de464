package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/config"
	"github.com/san-kum/cablesim/internal/metrics"
	"github.com/san-kum/cablesim/internal/sim"
)

// Builder constructs a cell from a configuration with the given number of
// compartments per cable.
type Builder func(cfg *config.Config, compartments int) (*cell.Cell, error)

type Registry struct {
	models map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]Builder),
	}

	r.models["ball_and_stick"] = buildBallAndStick
	r.models["soma"] = buildSoma
	r.models["branching"] = buildBranching
	r.models["swc"] = buildSWC

	return r
}

func (r *Registry) Register(name string, b Builder) {
	r.models[name] = b
}

func (r *Registry) GetModel(name string) (Builder, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics watches the peak voltage and spike count of every probe
// plus the stability of the whole cell.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	ms := make([]sim.Metric, 0, 2*len(cfg.Probes)+1)
	for _, p := range cfg.Probes {
		ms = append(ms,
			metrics.NewPeakVoltage("peak_"+p.Name, p.Location),
			metrics.NewSpikeCount("spikes_"+p.Name, p.Location, p.Threshold),
		)
	}
	ms = append(ms, metrics.NewStability(200))
	return ms
}

func mechanismParameters(name string) cell.Parameters {
	switch name {
	case "hh":
		return cell.HHParameters()
	case "pas":
		return cell.PasParameters()
	}
	return cell.NewParameters(name, nil)
}

func buildSoma(cfg *config.Config, _ int) (*cell.Cell, error) {
	c := cell.New()
	soma, err := c.AddSoma(cfg.Soma.Radius)
	if err != nil {
		return nil, err
	}
	if err := soma.AddMechanism(mechanismParameters(cfg.Soma.Mechanism)); err != nil {
		return nil, err
	}
	if err := addStimulus(c, cfg.Stimulus); err != nil {
		return nil, err
	}
	return c, nil
}

func buildBallAndStick(cfg *config.Config, n int) (*cell.Cell, error) {
	c := cell.New()
	soma, err := c.AddSoma(cfg.Soma.Radius)
	if err != nil {
		return nil, err
	}
	if err := soma.AddMechanism(mechanismParameters(cfg.Soma.Mechanism)); err != nil {
		return nil, err
	}

	d := cfg.Dendrite
	dend, err := c.AddCable(0, cell.Dendrite, d.Radius, d.Radius, d.Length)
	if err != nil {
		return nil, err
	}
	if err := paintCable(dend, d, n); err != nil {
		return nil, err
	}

	if err := addStimulus(c, cfg.Stimulus); err != nil {
		return nil, err
	}
	return c, nil
}

func buildBranching(cfg *config.Config, n int) (*cell.Cell, error) {
	c, err := cell.NewBranchingMorphology(cfg.Soma.Radius,
		mechanismParameters(cfg.Soma.Mechanism),
		mechanismParameters(cfg.Dendrite.Mechanism),
		n,
	)
	if err != nil {
		return nil, err
	}
	if err := addStimulus(c, cfg.Stimulus); err != nil {
		return nil, err
	}
	return c, nil
}

// buildSWC reads cfg.Morphology on every call. The soma takes the soma
// mechanism, axons the axon settings and every other cable the dendrite
// settings.
func buildSWC(cfg *config.Config, n int) (*cell.Cell, error) {
	if cfg.Morphology == "" {
		return nil, fmt.Errorf("%w: the swc model needs a morphology file", config.ErrInvalid)
	}
	c, err := cell.LoadSWC(cfg.Morphology)
	if err != nil {
		return nil, err
	}
	for _, seg := range c.Segments() {
		switch seg.Kind {
		case cell.Soma:
			err = seg.AddMechanism(mechanismParameters(cfg.Soma.Mechanism))
		case cell.Axon:
			err = paintCable(seg, cfg.Axon, n)
		default:
			err = paintCable(seg, cfg.Dendrite, n)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := addStimulus(c, cfg.Stimulus); err != nil {
		return nil, err
	}
	return c, nil
}

func paintCable(seg *cell.Segment, cc config.CableConfig, n int) error {
	if err := seg.AddMechanism(mechanismParameters(cc.Mechanism)); err != nil {
		return err
	}
	if err := seg.Membrane().Set("r_L", cc.RL); err != nil {
		return err
	}
	return seg.SetCompartments(n)
}

func addStimulus(c *cell.Cell, s config.StimulusConfig) error {
	if s.Amplitude == 0 {
		return nil
	}
	return c.AddStimulus(s.Location, s.Delay, s.Duration, s.Amplitude)
}
