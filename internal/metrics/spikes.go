package metrics

import (
	"github.com/san-kum/cablesim/internal/cell"
)

// SpikeCount counts upward threshold crossings at a location.
type SpikeCount struct {
	site
	name      string
	threshold float64
	prev      float64
	started   bool
	count     int
}

func NewSpikeCount(name string, loc cell.Location, threshold float64) *SpikeCount {
	return &SpikeCount{
		site:      site{loc: loc},
		name:      name,
		threshold: threshold,
	}
}

func (s *SpikeCount) Name() string { return s.name }

func (s *SpikeCount) Observe(v []float64, t float64) {
	cur := v[s.idx]
	if s.started && s.prev < s.threshold && cur >= s.threshold {
		s.count++
	}
	s.prev = cur
	s.started = true
}

func (s *SpikeCount) Value() float64 { return float64(s.count) }

func (s *SpikeCount) Reset() {
	s.count = 0
	s.started = false
}
