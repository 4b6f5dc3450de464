package cell

import (
	"errors"
	"math"
	"testing"
)

func TestAddSoma(t *testing.T) {
	c := New()
	s, err := c.AddSoma(6)
	if err != nil {
		t.Fatalf("add soma: %v", err)
	}
	if s.Parent != -1 || !s.IsSoma() {
		t.Errorf("soma should be the root, got parent %d kind %s", s.Parent, s.Kind)
	}

	if _, err := c.AddSoma(6); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("second soma: expected ErrInvalidTopology, got %v", err)
	}
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() error
		want  error
	}{
		{"zero soma radius", func() error {
			_, err := New().AddSoma(0)
			return err
		}, ErrInvalidGeometry},
		{"nan soma radius", func() error {
			_, err := New().AddSoma(math.NaN())
			return err
		}, ErrInvalidGeometry},
		{"cable before soma", func() error {
			_, err := New().AddCable(0, Dendrite, 1, 1, 10)
			return err
		}, ErrInvalidTopology},
		{"missing parent", func() error {
			c := New()
			c.AddSoma(5)
			_, err := c.AddCable(3, Dendrite, 1, 1, 10)
			return err
		}, ErrInvalidTopology},
		{"negative parent", func() error {
			c := New()
			c.AddSoma(5)
			_, err := c.AddCable(-1, Dendrite, 1, 1, 10)
			return err
		}, ErrInvalidTopology},
		{"soma kind cable", func() error {
			c := New()
			c.AddSoma(5)
			_, err := c.AddCable(0, Soma, 1, 1, 10)
			return err
		}, ErrInvalidTopology},
		{"negative length", func() error {
			c := New()
			c.AddSoma(5)
			_, err := c.AddCable(0, Dendrite, 1, 1, -10)
			return err
		}, ErrInvalidGeometry},
		{"zero radius", func() error {
			c := New()
			c.AddSoma(5)
			_, err := c.AddCable(0, Axon, 0, 1, 10)
			return err
		}, ErrInvalidGeometry},
		{"zero compartments", func() error {
			c := New()
			c.AddSoma(5)
			s, _ := c.AddCable(0, Dendrite, 1, 1, 10)
			return s.SetCompartments(0)
		}, ErrInvalidGeometry},
		{"stimulus off cell", func() error {
			c := New()
			c.AddSoma(5)
			return c.AddStimulus(Location{Segment: 2, Position: 0.5}, 0, 1, 1)
		}, ErrInvalidTopology},
		{"stimulus position", func() error {
			c := New()
			c.AddSoma(5)
			return c.AddStimulus(Location{Segment: 0, Position: 1.5}, 0, 1, 1)
		}, ErrInvalidGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			other := ErrInvalidTopology
			if tt.want == ErrInvalidTopology {
				other = ErrInvalidGeometry
			}
			if errors.Is(err, other) {
				t.Errorf("error %v should not match %v", err, other)
			}
		})
	}
}

func TestSomaIsSingleCompartment(t *testing.T) {
	c := New()
	s, _ := c.AddSoma(5)
	if err := s.SetCompartments(7); err != nil {
		t.Fatalf("set compartments: %v", err)
	}
	if s.Compartments() != 1 {
		t.Errorf("expected soma to stay at 1 compartment, got %d", s.Compartments())
	}
}

func TestMechanismLookup(t *testing.T) {
	c := New()
	s, _ := c.AddSoma(5)
	if err := s.AddMechanism(HHParameters()); err != nil {
		t.Fatalf("add hh: %v", err)
	}

	if err := s.AddMechanism(HHParameters()); !errors.Is(err, ErrMechanismConflict) {
		t.Errorf("duplicate hh: expected ErrMechanismConflict, got %v", err)
	}
	if err := s.AddMechanism(MembraneParameters()); !errors.Is(err, ErrMechanismConflict) {
		t.Errorf("membrane attach: expected ErrMechanismConflict, got %v", err)
	}

	if _, err := s.Mechanism("kdr"); !errors.Is(err, ErrUnknownMechanism) {
		t.Errorf("expected ErrUnknownMechanism, got %v", err)
	}

	hh, err := s.Mechanism("hh")
	if err != nil {
		t.Fatalf("lookup hh: %v", err)
	}
	if _, err := hh.Get("gbar"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
	if errors.Is(err, ErrUnknownMechanism) {
		t.Error("parameter errors must not look like mechanism errors")
	}

	mem, err := s.Mechanism(MembraneMechanism)
	if err != nil {
		t.Fatalf("membrane lookup: %v", err)
	}
	if err := mem.Set("r_L", 250); err != nil {
		t.Fatalf("set r_L: %v", err)
	}
	if v, _ := s.Membrane().Get("r_L"); v != 250 {
		t.Errorf("membrane update not visible on segment, got %g", v)
	}
}

func TestAddMechanismRejectsUnknown(t *testing.T) {
	tests := []struct {
		name string
		p    Parameters
		want error
	}{
		{"unknown channel", NewParameters("kdr", map[string]float64{"gbar": 1}), ErrUnknownMechanism},
		{"clamp is not a channel", NewParameters("iclamp", nil), ErrUnknownMechanism},
		{"undeclared parameter", NewParameters("hh", map[string]float64{"gnabar": 0.1, "gcabar": 0.2}), ErrUnknownParameter},
		{"partial declaration", NewParameters("pas", map[string]float64{"g": 0.002}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			s, _ := c.AddSoma(5)
			err := s.AddMechanism(tt.p)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(s.Mechanisms()) != 0 {
				t.Error("rejected mechanism was attached")
			}
		})
	}

	if got := ChannelNames(); len(got) != 2 || got[0] != "hh" || got[1] != "pas" {
		t.Errorf("channels = %v", got)
	}
}

func TestAddMechanismCopies(t *testing.T) {
	c := New()
	s, _ := c.AddSoma(5)
	p := PasParameters()
	s.AddMechanism(p)
	p.Set("g", 42)

	attached, _ := s.Mechanism("pas")
	if g, _ := attached.Get("g"); g != 0.001 {
		t.Errorf("attached parameters changed with caller copy: g=%g", g)
	}
}

func TestSegmentArea(t *testing.T) {
	c := New()
	soma, _ := c.AddSoma(BallAndStickSomaRadius)
	if got := soma.Area(); math.Abs(got-500) > 0.01 {
		t.Errorf("soma area: expected ~500 µm², got %f", got)
	}

	dend, _ := c.AddCable(0, Dendrite, 0.5, 0.5, 200)
	if got, want := dend.Area(), math.Pi*200; math.Abs(got-want) > 1e-9 {
		t.Errorf("cylinder area: expected %f, got %f", want, got)
	}

	taper, _ := c.AddCable(1, Dendrite, 2, 0.5, 50)
	want := math.Pi * 2.5 * math.Sqrt(50*50+1.5*1.5)
	if got := taper.Area(); math.Abs(got-want) > 1e-9 {
		t.Errorf("frustum area: expected %f, got %f", want, got)
	}
	if got := taper.RadiusAt(0.5); got != 1.25 {
		t.Errorf("midpoint radius: expected 1.25, got %f", got)
	}
}

func TestValidate(t *testing.T) {
	c, err := NewBranching(3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	c.Segment(3).Parent = 4
	if err := c.Validate(); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("forward parent: expected ErrInvalidTopology, got %v", err)
	}

	if err := New().Validate(); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("empty cell: expected ErrInvalidTopology, got %v", err)
	}
}

func TestBallAndStick(t *testing.T) {
	c, err := NewBallAndStick(11)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if c.NumSegments() != 2 {
		t.Fatalf("expected 2 segments, got %d", c.NumSegments())
	}
	if c.NumCompartments() != 12 {
		t.Errorf("expected 12 compartments, got %d", c.NumCompartments())
	}
	stim := c.Stimuli()
	if len(stim) != 1 || stim[0].Amplitude != 0.3 || stim[0].Delay != 5 || stim[0].Duration != 80 {
		t.Errorf("unexpected stimulus %+v", stim)
	}
}

func TestParseSegmentKind(t *testing.T) {
	for _, k := range []SegmentKind{Soma, Dendrite, Axon} {
		got, err := ParseSegmentKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseSegmentKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseSegmentKind("basal"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
