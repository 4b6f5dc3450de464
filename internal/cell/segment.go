package cell

import (
	"fmt"
	"math"
	"strings"
)

type SegmentKind int

const (
	Soma SegmentKind = iota
	Dendrite
	Axon
)

func (k SegmentKind) String() string {
	switch k {
	case Soma:
		return "soma"
	case Dendrite:
		return "dendrite"
	case Axon:
		return "axon"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

func ParseSegmentKind(s string) (SegmentKind, error) {
	switch strings.ToLower(s) {
	case "soma":
		return Soma, nil
	case "dendrite", "dend":
		return Dendrite, nil
	case "axon":
		return Axon, nil
	}
	return 0, fmt.Errorf("%w: unknown segment kind %q", ErrInvalidGeometry, s)
}

// Segment is one node of the morphology tree. For the soma only Radius is
// meaningful; cables use Length and the proximal/distal Radii.
type Segment struct {
	Kind   SegmentKind
	Parent int
	Radius float64
	Length float64
	Radii  [2]float64

	membrane     Parameters
	mechanisms   []Parameters
	compartments int
}

func (s *Segment) IsSoma() bool { return s.Kind == Soma }

// Compartments returns the number of compartments the segment will be
// discretised into. The soma is always one compartment.
func (s *Segment) Compartments() int {
	if s.IsSoma() {
		return 1
	}
	return s.compartments
}

// SetCompartments sets the spatial resolution of a cable. It is a no-op
// on the soma.
func (s *Segment) SetCompartments(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: compartment count must be >= 1, got %d", ErrInvalidGeometry, n)
	}
	if s.IsSoma() {
		return nil
	}
	s.compartments = n
	return nil
}

// AddMechanism attaches a channel mechanism. The parameters are copied.
// Unknown channels and undeclared parameter names are rejected here.
func (s *Segment) AddMechanism(p Parameters) error {
	if p.Name == "" {
		return fmt.Errorf("%w: mechanism name is required", ErrUnknownMechanism)
	}
	if p.Name == MembraneMechanism {
		return fmt.Errorf("%w: %q is reserved", ErrMechanismConflict, MembraneMechanism)
	}
	if err := checkChannel(p); err != nil {
		return err
	}
	for _, m := range s.mechanisms {
		if m.Name == p.Name {
			return fmt.Errorf("%w: %q already attached", ErrMechanismConflict, p.Name)
		}
	}
	s.mechanisms = append(s.mechanisms, p.Clone())
	return nil
}

// Mechanism returns the named parameters attached to the segment. The
// membrane parameters are always present. The returned value shares
// storage with the segment, so Set on it updates the segment.
func (s *Segment) Mechanism(name string) (Parameters, error) {
	if name == MembraneMechanism {
		return s.membrane, nil
	}
	for _, m := range s.mechanisms {
		if m.Name == name {
			return m, nil
		}
	}
	return Parameters{}, fmt.Errorf("%w: %q not attached to %s segment", ErrUnknownMechanism, name, s.Kind)
}

// Mechanisms returns the attached channel mechanisms in attachment order,
// excluding the membrane.
func (s *Segment) Mechanisms() []Parameters {
	out := make([]Parameters, len(s.mechanisms))
	copy(out, s.mechanisms)
	return out
}

func (s *Segment) Membrane() Parameters { return s.membrane }

// RadiusAt returns the radius at fractional position x along a cable,
// interpolating linearly between the end radii.
func (s *Segment) RadiusAt(x float64) float64 {
	if s.IsSoma() {
		return s.Radius
	}
	return s.Radii[0] + (s.Radii[1]-s.Radii[0])*x
}

// Area returns the membrane area in µm².
func (s *Segment) Area() float64 {
	if s.IsSoma() {
		return 4 * math.Pi * s.Radius * s.Radius
	}
	return FrustumArea(s.Length, s.Radii[0], s.Radii[1])
}

// FrustumArea is the lateral area of a truncated cone.
func FrustumArea(length, r0, r1 float64) float64 {
	slant := math.Hypot(length, r1-r0)
	return math.Pi * (r0 + r1) * slant
}
