package mechanism

import (
	"fmt"
	"math"

	"github.com/san-kum/cablesim/internal/cell"
)

// HH is the Hodgkin-Huxley squid axon model.
type HH struct {
	reg   *Registry
	nodes []int
	area  []float64

	GNaBar float64 // S/cm²
	GKBar  float64 // S/cm²
	GL     float64 // S/cm²
	EL     float64 // mV
	ENa    float64 // mV
	EK     float64 // mV

	m, h, n []float64
}

func newHH(r *Registry, nodes []int, areas []float64) (Mechanism, error) {
	p := cell.HHParameters()
	hh := &HH{
		reg:   r,
		nodes: nodes,
		area:  areas,
		m:     make([]float64, len(nodes)),
		h:     make([]float64, len(nodes)),
		n:     make([]float64, len(nodes)),
	}
	for _, name := range p.Names() {
		v, _ := p.Get(name)
		hh.Set(name, v)
	}
	return hh, nil
}

func (hh *HH) Name() string { return "hh" }
func (hh *HH) Nodes() []int { return hh.nodes }

// Init sets every gate to its steady state at v.
func (hh *HH) Init(v []float64) {
	for k, idx := range hh.nodes {
		r := hh.reg.rateAt(v[idx])
		hh.m[k] = r.MInf
		hh.h[k] = r.HInf
		hh.n[k] = r.NInf
	}
}

func (hh *HH) Current(v []float64, t float64, i, g []float64) {
	for k, idx := range hh.nodes {
		vk := v[idx]
		m, h, n := hh.m[k], hh.h[k], hh.n[k]

		gna := hh.GNaBar * m * m * m * h
		gk := hh.GKBar * n * n * n * n

		ina := gna * (vk - hh.ENa)
		ik := gk * (vk - hh.EK)
		il := hh.GL * (vk - hh.EL)

		scale := hh.area[k] * density
		i[idx] += (ina + ik + il) * scale
		g[idx] += (gna + gk + hh.GL) * scale
	}
}

// Advance integrates the gates with exponential Euler, which is
// unconditionally stable for linear first-order kinetics.
func (hh *HH) Advance(v []float64, dt float64) {
	for k, idx := range hh.nodes {
		r := hh.reg.rateAt(v[idx])
		hh.m[k] += (1 - math.Exp(-dt/r.MTau)) * (r.MInf - hh.m[k])
		hh.h[k] += (1 - math.Exp(-dt/r.HTau)) * (r.HInf - hh.h[k])
		hh.n[k] += (1 - math.Exp(-dt/r.NTau)) * (r.NInf - hh.n[k])
	}
}

// Gates returns the gating state of the k-th owned node.
func (hh *HH) Gates(k int) (m, h, n float64) {
	return hh.m[k], hh.h[k], hh.n[k]
}

func (hh *HH) Get(name string) (float64, error) {
	switch name {
	case "gnabar":
		return hh.GNaBar, nil
	case "gkbar":
		return hh.GKBar, nil
	case "gl":
		return hh.GL, nil
	case "el":
		return hh.EL, nil
	case "ena":
		return hh.ENa, nil
	case "ek":
		return hh.EK, nil
	}
	return 0, fmt.Errorf("%w: hh has no parameter %q", cell.ErrUnknownParameter, name)
}

func (hh *HH) Set(name string, value float64) error {
	switch name {
	case "gnabar":
		hh.GNaBar = value
	case "gkbar":
		hh.GKBar = value
	case "gl":
		hh.GL = value
	case "el":
		hh.EL = value
	case "ena":
		hh.ENa = value
	case "ek":
		hh.EK = value
	default:
		return fmt.Errorf("%w: hh has no parameter %q", cell.ErrUnknownParameter, name)
	}
	return nil
}
