package cell

// BallAndStickSomaRadius gives a soma area of 500 µm².
const BallAndStickSomaRadius = 12.6157 / 2

// NewBallAndStick builds the validation cell: an hh soma with a single
// 200 µm passive dendrite of 1 µm diameter, stimulated with 0.3 nA at the
// distal tip from 5 ms to 85 ms.
func NewBallAndStick(compartments int) (*Cell, error) {
	c := New()
	soma, err := c.AddSoma(BallAndStickSomaRadius)
	if err != nil {
		return nil, err
	}
	if err := soma.AddMechanism(HHParameters()); err != nil {
		return nil, err
	}

	dend, err := c.AddCable(0, Dendrite, 0.5, 0.5, 200)
	if err != nil {
		return nil, err
	}
	if err := dend.AddMechanism(PasParameters()); err != nil {
		return nil, err
	}
	if err := dend.membrane.Set("r_L", 100); err != nil {
		return nil, err
	}
	if err := dend.SetCompartments(compartments); err != nil {
		return nil, err
	}

	if err := c.AddStimulus(Location{Segment: 1, Position: 1}, 5, 80, 0.3); err != nil {
		return nil, err
	}
	return c, nil
}

// NewSoma builds a single hh compartment with an optional current clamp.
func NewSoma(radius, delay, duration, amplitude float64) (*Cell, error) {
	c := New()
	soma, err := c.AddSoma(radius)
	if err != nil {
		return nil, err
	}
	if err := soma.AddMechanism(HHParameters()); err != nil {
		return nil, err
	}
	if amplitude != 0 {
		if err := c.AddStimulus(Location{Segment: 0, Position: 0.5}, delay, duration, amplitude); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BranchingSomaRadius is the soma radius of NewBranching in µm.
const BranchingSomaRadius = 6.0

// BranchingStimulus injects 0.8 nA for 2 ms from 10 ms at the middle of
// the tapered branch.
var BranchingStimulus = Stimulus{
	Location:  Location{Segment: 2, Position: 0.5},
	Delay:     10,
	Duration:  2,
	Amplitude: 0.8,
}

// NewBranching builds a soma with a dendrite that forks into a tapered
// branch and a uniform branch, each of which forks again, stimulated with
// BranchingStimulus.
//
//	            b4
//	           /
//	          b1---b3
//	         /
//	s-------b0
//	         \
//	          b2
func NewBranching(compartments int) (*Cell, error) {
	c, err := NewBranchingMorphology(BranchingSomaRadius, HHParameters(), PasParameters(), compartments)
	if err != nil {
		return nil, err
	}
	st := BranchingStimulus
	if err := c.AddStimulus(st.Location, st.Delay, st.Duration, st.Amplitude); err != nil {
		return nil, err
	}
	return c, nil
}

// NewBranchingMorphology builds the branching tree without stimuli. soma
// is attached to the soma and dend to every cable.
func NewBranchingMorphology(somaRadius float64, soma, dend Parameters, compartments int) (*Cell, error) {
	c := New()
	root, err := c.AddSoma(somaRadius)
	if err != nil {
		return nil, err
	}
	if err := root.AddMechanism(soma); err != nil {
		return nil, err
	}

	type cable struct {
		parent int
		r0, r1 float64
		length float64
		rL     float64
	}
	cables := []cable{
		{0, 2, 2, 100, 500},
		{1, 2, 0.5, 50, 500},
		{1, 1, 1, 50, 500},
		{2, 1, 1, 50, 10000},
		{2, 1, 1, 50, 10000},
	}
	for _, cb := range cables {
		seg, err := c.AddCable(cb.parent, Dendrite, cb.r0, cb.r1, cb.length)
		if err != nil {
			return nil, err
		}
		if err := seg.AddMechanism(dend); err != nil {
			return nil, err
		}
		if err := seg.membrane.Set("r_L", cb.rL); err != nil {
			return nil, err
		}
		if err := seg.SetCompartments(compartments); err != nil {
			return nil, err
		}
	}
	return c, nil
}
