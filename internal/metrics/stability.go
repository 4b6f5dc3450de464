package metrics

import (
	"math"
)

// Stability is the fraction of samples whose voltages all stay finite and
// within ±bound mV.
type Stability struct {
	name       string
	bound      float64
	violations int
	samples    int
}

func NewStability(bound float64) *Stability {
	return &Stability{
		name:  "stability",
		bound: bound,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(v []float64, t float64) {
	s.samples++
	for _, val := range v {
		if math.IsNaN(val) || math.Abs(val) > s.bound {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
