package compartment

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cablesim/internal/cell"
)

func ballAndStick(t *testing.T, n int) *cell.Cell {
	t.Helper()
	c, err := cell.NewBallAndStick(n)
	if err != nil {
		t.Fatalf("build cell: %v", err)
	}
	return c
}

func TestDiscretizeSomaOnly(t *testing.T) {
	c, err := cell.NewSoma(cell.BallAndStickSomaRadius, 0, 0, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g, err := Discretize(c)
	if err != nil {
		t.Fatalf("discretize: %v", err)
	}
	if g.Size() != 1 {
		t.Fatalf("expected 1 node, got %d", g.Size())
	}
	if g.Parent[0] != -1 || g.FaceConductance[0] != 0 {
		t.Errorf("root node should have no parent and no face, got %d %g", g.Parent[0], g.FaceConductance[0])
	}
	// 500 µm² at 1 µF/cm² is 5 pF
	if math.Abs(g.Capacitance[0]-5e-3) > 1e-6 {
		t.Errorf("expected 5e-3 nF, got %g", g.Capacitance[0])
	}
}

func TestDiscretizeBallAndStick(t *testing.T) {
	for _, n := range []int{1, 2, 5, 11, 51} {
		c := ballAndStick(t, n)
		g, err := Discretize(c)
		if err != nil {
			t.Fatalf("n=%d: discretize: %v", n, err)
		}
		if g.Size() != n+1 {
			t.Fatalf("n=%d: expected %d nodes, got %d", n, n+1, g.Size())
		}

		if g.Parent[1] != 0 {
			t.Errorf("n=%d: first dendrite node should attach to soma, got %d", n, g.Parent[1])
		}
		for i := 2; i < g.Size(); i++ {
			if g.Parent[i] != i-1 {
				t.Errorf("n=%d: node %d should chain to %d, got %d", n, i, i-1, g.Parent[i])
			}
		}

		// total area is conserved
		total := 0.0
		for _, a := range g.Area {
			total += a
		}
		want := c.Segment(0).Area() + c.Segment(1).Area()
		if math.Abs(total-want) > 1e-9*want {
			t.Errorf("n=%d: total area %f, want %f", n, total, want)
		}

		// uniform cable: 100 π r² / (r_L dx) with r=0.5, r_L=100
		dx := 200 / float64(n)
		wantG := 100 * math.Pi * 0.25 / (100 * dx)
		for i := 1; i < g.Size(); i++ {
			if math.Abs(g.FaceConductance[i]-wantG) > 1e-12 {
				t.Errorf("n=%d node %d: face conductance %g, want %g", n, i, g.FaceConductance[i], wantG)
			}
		}

		// the distal node holds half a compartment
		half := math.Pi * dx / 2
		if math.Abs(g.Area[n]-half) > 1e-9 {
			t.Errorf("n=%d: distal area %f, want %f", n, g.Area[n], half)
		}
	}
}

func TestDiscretizeBranching(t *testing.T) {
	c, err := cell.NewBranching(4)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	g, err := Discretize(c)
	if err != nil {
		t.Fatalf("discretize: %v", err)
	}
	if g.Size() != 1+5*4 {
		t.Fatalf("expected 21 nodes, got %d", g.Size())
	}

	// b1 and b2 both attach to the distal node of b0
	b0End := g.SegmentIndex[2] - 1
	if g.Parent[g.SegmentIndex[2]] != b0End || g.Parent[g.SegmentIndex[3]] != b0End {
		t.Errorf("branches should attach to node %d", b0End)
	}
	if len(g.Children(b0End)) != 2 {
		t.Errorf("expected branch point with 2 children, got %v", g.Children(b0End))
	}

	// patches of each segment cover its area exactly
	for si, seg := range c.Segments() {
		sum := 0.0
		for _, p := range g.Patches[si] {
			sum += p.Area
		}
		if math.Abs(sum-seg.Area()) > 1e-9*seg.Area() {
			t.Errorf("segment %d: patch area %f, want %f", si, sum, seg.Area())
		}
	}

	// tapered segment conductance shrinks distally
	first := g.SegmentIndex[2]
	for k := 1; k < 4; k++ {
		if g.FaceConductance[first+k] >= g.FaceConductance[first+k-1] {
			t.Errorf("taper: face %d not smaller than face %d", k, k-1)
		}
	}
}

func TestDiscretizeRejectsBadMembrane(t *testing.T) {
	c := ballAndStick(t, 3)
	mem, _ := c.Segment(1).Mechanism(cell.MembraneMechanism)
	mem.Set("r_L", 0)
	if _, err := Discretize(c); !errors.Is(err, cell.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestGraphOutlivesResolutionChange(t *testing.T) {
	c := ballAndStick(t, 3)
	g, err := Discretize(c)
	if err != nil {
		t.Fatal(err)
	}
	c.Segment(1).SetCompartments(5)
	if g.Size() != 4 || g.Compartments(1) != 3 {
		t.Errorf("graph followed the cell: size %d, segment 1 has %d", g.Size(), g.Compartments(1))
	}
}

func TestFindCompartmentIndex(t *testing.T) {
	tests := []struct {
		n    int
		loc  cell.Location
		want int
	}{
		{1, cell.Location{Segment: 0, Position: 0}, 0},
		{5, cell.Location{Segment: 0, Position: 0.7}, 0},
		{1, cell.Location{Segment: 1, Position: 0.5}, 1},
		{1, cell.Location{Segment: 1, Position: 1}, 1},
		{4, cell.Location{Segment: 1, Position: 0}, 1},
		{4, cell.Location{Segment: 1, Position: 0.1}, 1},
		{4, cell.Location{Segment: 1, Position: 0.25}, 1},
		{4, cell.Location{Segment: 1, Position: 0.26}, 2},
		{4, cell.Location{Segment: 1, Position: 0.5}, 2},
		{4, cell.Location{Segment: 1, Position: 1}, 4},
		{5, cell.Location{Segment: 1, Position: 0.5}, 3},
		{11, cell.Location{Segment: 1, Position: 1}, 11},
	}

	for _, tt := range tests {
		g, err := Discretize(ballAndStick(t, tt.n))
		if err != nil {
			t.Fatalf("discretize: %v", err)
		}
		got, err := FindCompartmentIndex(tt.loc, g)
		if err != nil {
			t.Fatalf("n=%d %s: %v", tt.n, tt.loc, err)
		}
		if got != tt.want {
			t.Errorf("n=%d %s: expected %d, got %d", tt.n, tt.loc, tt.want, got)
		}
		again, _ := FindCompartmentIndex(tt.loc, g)
		if again != got {
			t.Errorf("n=%d %s: unstable result %d then %d", tt.n, tt.loc, got, again)
		}
	}
}

func TestFindCompartmentIndexRefinement(t *testing.T) {
	loc := cell.Location{Segment: 1, Position: 0.5}
	for _, n := range []int{2, 4, 8, 16, 32} {
		g, _ := Discretize(ballAndStick(t, n))
		idx, err := FindCompartmentIndex(loc, g)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		k := idx - g.SegmentIndex[1]
		if pos := float64(k+1) / float64(n); pos != 0.5 {
			t.Errorf("n=%d: midpoint resolved to node at %g", n, pos)
		}
	}
}

func TestFindCompartmentIndexErrors(t *testing.T) {
	g, _ := Discretize(ballAndStick(t, 3))
	if _, err := FindCompartmentIndex(cell.Location{Segment: 2}, g); !errors.Is(err, cell.ErrInvalidTopology) {
		t.Errorf("expected ErrInvalidTopology, got %v", err)
	}
	if _, err := FindCompartmentIndex(cell.Location{Segment: 1, Position: -0.1}, g); !errors.Is(err, cell.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}
