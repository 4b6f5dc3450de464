package mechanism

import (
	"fmt"

	"github.com/san-kum/cablesim/internal/cell"
)

// Pas is a linear leak conductance.
type Pas struct {
	nodes []int
	area  []float64

	G float64 // S/cm²
	E float64 // mV
}

func newPas(_ *Registry, nodes []int, areas []float64) (Mechanism, error) {
	return &Pas{nodes: nodes, area: areas, G: 0.001, E: -65}, nil
}

func (p *Pas) Name() string               { return "pas" }
func (p *Pas) Nodes() []int               { return p.nodes }
func (p *Pas) Init(v []float64)           {}
func (p *Pas) Advance([]float64, float64) {}

func (p *Pas) Current(v []float64, t float64, i, g []float64) {
	for k, idx := range p.nodes {
		scale := p.area[k] * density
		i[idx] += p.G * (v[idx] - p.E) * scale
		g[idx] += p.G * scale
	}
}

func (p *Pas) Get(name string) (float64, error) {
	switch name {
	case "g":
		return p.G, nil
	case "e":
		return p.E, nil
	}
	return 0, fmt.Errorf("%w: pas has no parameter %q", cell.ErrUnknownParameter, name)
}

func (p *Pas) Set(name string, value float64) error {
	switch name {
	case "g":
		p.G = value
	case "e":
		p.E = value
	default:
		return fmt.Errorf("%w: pas has no parameter %q", cell.ErrUnknownParameter, name)
	}
	return nil
}
