package cell

import (
	"fmt"
	"math"
)

// Location is a point on the morphology: a segment index and a fractional
// position in [0,1] measured from the segment's proximal end.
type Location struct {
	Segment  int     `json:"segment" yaml:"segment"`
	Position float64 `json:"position" yaml:"position"`
}

func (l Location) String() string {
	return fmt.Sprintf("(%d, %g)", l.Segment, l.Position)
}

// Stimulus is a current clamp: Amplitude nA injected during
// [Delay, Delay+Duration) ms.
type Stimulus struct {
	Location  Location
	Delay     float64
	Duration  float64
	Amplitude float64
}

type Cell struct {
	segments []*Segment
	stimuli  []Stimulus
}

func New() *Cell {
	return &Cell{}
}

// AddSoma adds the root segment. It must be the first segment.
func (c *Cell) AddSoma(radius float64) (*Segment, error) {
	if len(c.segments) != 0 {
		return nil, fmt.Errorf("%w: soma must be the first and only root segment", ErrInvalidTopology)
	}
	if !positive(radius) {
		return nil, fmt.Errorf("%w: soma radius must be positive, got %g", ErrInvalidGeometry, radius)
	}
	s := &Segment{
		Kind:         Soma,
		Parent:       -1,
		Radius:       radius,
		membrane:     MembraneParameters(),
		compartments: 1,
	}
	c.segments = append(c.segments, s)
	return s, nil
}

// AddCable attaches a cable of the given length with proximal radius r0
// and distal radius r1 to an existing segment.
func (c *Cell) AddCable(parent int, kind SegmentKind, r0, r1, length float64) (*Segment, error) {
	if len(c.segments) == 0 {
		return nil, fmt.Errorf("%w: add the soma before any cable", ErrInvalidTopology)
	}
	if parent < 0 || parent >= len(c.segments) {
		return nil, fmt.Errorf("%w: parent %d does not reference an existing segment", ErrInvalidTopology, parent)
	}
	if kind == Soma {
		return nil, fmt.Errorf("%w: a cell has exactly one soma", ErrInvalidTopology)
	}
	if !positive(r0) || !positive(r1) {
		return nil, fmt.Errorf("%w: cable radii must be positive, got %g and %g", ErrInvalidGeometry, r0, r1)
	}
	if !positive(length) {
		return nil, fmt.Errorf("%w: cable length must be positive, got %g", ErrInvalidGeometry, length)
	}
	s := &Segment{
		Kind:         kind,
		Parent:       parent,
		Length:       length,
		Radii:        [2]float64{r0, r1},
		membrane:     MembraneParameters(),
		compartments: 1,
	}
	c.segments = append(c.segments, s)
	return s, nil
}

// AddStimulus places a current clamp on the cell.
func (c *Cell) AddStimulus(loc Location, delay, duration, amplitude float64) error {
	if err := c.checkLocation(loc); err != nil {
		return err
	}
	if delay < 0 || duration < 0 || math.IsNaN(delay) || math.IsNaN(duration) {
		return fmt.Errorf("%w: stimulus window must be non-negative, got delay=%g duration=%g", ErrInvalidGeometry, delay, duration)
	}
	c.stimuli = append(c.stimuli, Stimulus{
		Location:  loc,
		Delay:     delay,
		Duration:  duration,
		Amplitude: amplitude,
	})
	return nil
}

func (c *Cell) checkLocation(loc Location) error {
	if loc.Segment < 0 || loc.Segment >= len(c.segments) {
		return fmt.Errorf("%w: location %s references no segment", ErrInvalidTopology, loc)
	}
	if loc.Position < 0 || loc.Position > 1 || math.IsNaN(loc.Position) {
		return fmt.Errorf("%w: location %s position outside [0,1]", ErrInvalidGeometry, loc)
	}
	return nil
}

// CheckLocation reports whether loc names a point on the cell.
func (c *Cell) CheckLocation(loc Location) error { return c.checkLocation(loc) }

func (c *Cell) NumSegments() int { return len(c.segments) }

// Segment returns segment i, or nil if out of range.
func (c *Cell) Segment(i int) *Segment {
	if i < 0 || i >= len(c.segments) {
		return nil
	}
	return c.segments[i]
}

func (c *Cell) Segments() []*Segment {
	out := make([]*Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

func (c *Cell) Soma() *Segment {
	if len(c.segments) == 0 || !c.segments[0].IsSoma() {
		return nil
	}
	return c.segments[0]
}

func (c *Cell) Stimuli() []Stimulus {
	out := make([]Stimulus, len(c.stimuli))
	copy(out, c.stimuli)
	return out
}

// NumCompartments is the total compartment count at the current
// resolution.
func (c *Cell) NumCompartments() int {
	n := 0
	for _, s := range c.segments {
		n += s.Compartments()
	}
	return n
}

// Validate checks the invariants the builder methods maintain. It exists
// for cells whose segments were modified after construction.
func (c *Cell) Validate() error {
	if len(c.segments) == 0 {
		return fmt.Errorf("%w: cell has no segments", ErrInvalidTopology)
	}
	for i, s := range c.segments {
		if i == 0 {
			if !s.IsSoma() || s.Parent != -1 {
				return fmt.Errorf("%w: segment 0 must be the soma root", ErrInvalidTopology)
			}
			if !positive(s.Radius) {
				return fmt.Errorf("%w: soma radius must be positive", ErrInvalidGeometry)
			}
			continue
		}
		if s.IsSoma() {
			return fmt.Errorf("%w: second soma at segment %d", ErrInvalidTopology, i)
		}
		// parents precede children, so the tree is rooted and acyclic
		if s.Parent < 0 || s.Parent >= i {
			return fmt.Errorf("%w: segment %d has parent %d", ErrInvalidTopology, i, s.Parent)
		}
		if !positive(s.Length) || !positive(s.Radii[0]) || !positive(s.Radii[1]) {
			return fmt.Errorf("%w: segment %d has non-positive dimensions", ErrInvalidGeometry, i)
		}
		if s.compartments < 1 {
			return fmt.Errorf("%w: segment %d has %d compartments", ErrInvalidGeometry, i, s.compartments)
		}
	}
	for _, st := range c.stimuli {
		if err := c.checkLocation(st.Location); err != nil {
			return err
		}
	}
	return nil
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}
