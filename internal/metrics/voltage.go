package metrics

import (
	"math"

	"github.com/san-kum/cablesim/internal/cell"
)

// site is a location resolved to a compartment when a run starts.
type site struct {
	loc cell.Location
	idx int
}

func (s *site) Bind(locate func(cell.Location) (int, error)) error {
	idx, err := locate(s.loc)
	if err != nil {
		return err
	}
	s.idx = idx
	return nil
}

// PeakVoltage is the largest voltage seen at a location.
type PeakVoltage struct {
	site
	name string
	peak float64
}

func NewPeakVoltage(name string, loc cell.Location) *PeakVoltage {
	return &PeakVoltage{
		site: site{loc: loc},
		name: name,
		peak: math.Inf(-1),
	}
}

func (p *PeakVoltage) Name() string { return p.name }

func (p *PeakVoltage) Observe(v []float64, t float64) {
	p.peak = math.Max(p.peak, v[p.idx])
}

func (p *PeakVoltage) Value() float64 { return p.peak }

func (p *PeakVoltage) Reset() { p.peak = math.Inf(-1) }

// MeanVoltage is the time average of the voltage at a location.
type MeanVoltage struct {
	site
	name    string
	sum     float64
	samples int
}

func NewMeanVoltage(name string, loc cell.Location) *MeanVoltage {
	return &MeanVoltage{
		site: site{loc: loc},
		name: name,
	}
}

func (m *MeanVoltage) Name() string { return m.name }

func (m *MeanVoltage) Observe(v []float64, t float64) {
	m.sum += v[m.idx]
	m.samples++
}

func (m *MeanVoltage) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanVoltage) Reset() {
	m.sum = 0
	m.samples = 0
}
