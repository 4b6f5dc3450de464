package compartment

import (
	"fmt"
	"math"

	"github.com/san-kum/cablesim/internal/cell"
)

// Patch is the membrane of one segment that falls in one node's control
// volume.
type Patch struct {
	Node int
	Area float64 // µm²
}

// Graph is an immutable discretisation of a cell.
type Graph struct {
	// Parent[i] is the parent node of i, or -1 for the root.
	Parent []int
	// SegmentIndex[s] is the first node of segment s; the last entry is the
	// node count.
	SegmentIndex []int
	// Area is the control volume membrane area in µm².
	Area []float64
	// Capacitance is the control volume capacitance in nF.
	Capacitance []float64
	// FaceConductance[i] is the axial conductance between i and Parent[i]
	// in µS. It is zero for the root.
	FaceConductance []float64
	// Patches[s] lists the membrane of segment s by node.
	Patches [][]Patch

	children [][]int
}

// Discretize builds the compartment graph of c at its current resolution.
func Discretize(c *cell.Cell) (*Graph, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	segments := c.Segments()

	g := &Graph{
		SegmentIndex: make([]int, len(segments)+1),
		Patches:      make([][]Patch, len(segments)),
	}
	n := 0
	for i, s := range segments {
		g.SegmentIndex[i] = n
		n += s.Compartments()
	}
	g.SegmentIndex[len(segments)] = n

	g.Parent = make([]int, n)
	g.Area = make([]float64, n)
	g.Capacitance = make([]float64, n)
	g.FaceConductance = make([]float64, n)

	for si, s := range segments {
		cm, err := membraneValue(s, "c_m")
		if err != nil {
			return nil, err
		}
		if s.IsSoma() {
			idx := g.SegmentIndex[si]
			area := s.Area()
			g.Parent[idx] = -1
			g.addPatch(si, idx, area, cm)
			continue
		}

		rL, err := membraneValue(s, "r_L")
		if err != nil {
			return nil, err
		}

		first := g.SegmentIndex[si]
		count := g.Compartments(si)
		dx := s.Length / float64(count)
		for k := 0; k < count; k++ {
			idx := first + k
			parent := idx - 1
			if k == 0 {
				parent = g.SegmentIndex[s.Parent+1] - 1
			}
			g.Parent[idx] = parent

			r0 := s.RadiusAt(float64(k) / float64(count))
			rc := s.RadiusAt((float64(k) + 0.5) / float64(count))
			r1 := s.RadiusAt(float64(k+1) / float64(count))

			g.addPatch(si, parent, cell.FrustumArea(dx/2, r0, rc), cm)
			g.addPatch(si, idx, cell.FrustumArea(dx/2, rc, r1), cm)

			g.FaceConductance[idx] = 100 * math.Pi * rc * rc / (rL * dx)
		}
	}

	g.children = make([][]int, n)
	for i, p := range g.Parent {
		if p >= 0 {
			g.children[p] = append(g.children[p], i)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// addPatch merges area into the last patch of segment si when it lands on
// the same node.
func (g *Graph) addPatch(si, node int, area, cm float64) {
	g.Area[node] += area
	// F/m² · µm² = 1e-12 F = 1e-3 nF
	g.Capacitance[node] += cm * area * 1e-3

	patches := g.Patches[si]
	if last := len(patches) - 1; last >= 0 && patches[last].Node == node {
		patches[last].Area += area
		return
	}
	g.Patches[si] = append(patches, Patch{Node: node, Area: area})
}

func membraneValue(s *cell.Segment, name string) (float64, error) {
	v, err := s.Membrane().Get(name)
	if err != nil {
		return 0, err
	}
	if !(v > 0) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: membrane %s must be positive, got %g", cell.ErrInvalidGeometry, name, v)
	}
	return v, nil
}

func (g *Graph) Size() int { return len(g.Parent) }

func (g *Graph) NumSegments() int { return len(g.SegmentIndex) - 1 }

// Children returns the child nodes of node i. The slice must not be
// modified.
func (g *Graph) Children(i int) []int { return g.children[i] }

// Compartments returns the node count of segment s.
func (g *Graph) Compartments(s int) int {
	return g.SegmentIndex[s+1] - g.SegmentIndex[s]
}

// Validate checks that the arena describes a single tree rooted at node 0
// with parents preceding children.
func (g *Graph) Validate() error {
	if len(g.Parent) == 0 {
		return fmt.Errorf("%w: empty compartment graph", cell.ErrInvalidTopology)
	}
	if g.Parent[0] != -1 {
		return fmt.Errorf("%w: node 0 must be the root", cell.ErrInvalidTopology)
	}
	for i := 1; i < len(g.Parent); i++ {
		if p := g.Parent[i]; p < 0 || p >= i {
			return fmt.Errorf("%w: node %d has parent %d", cell.ErrInvalidTopology, i, p)
		}
	}
	return nil
}
