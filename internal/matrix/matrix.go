package matrix

import (
	"fmt"
	"math"

	"github.com/san-kum/cablesim/internal/cell"
)

// Coefficients are the inputs of one assembly. All slices are indexed by
// compartment.
type Coefficients struct {
	Dt              float64
	Capacitance     []float64 // nF
	FaceConductance []float64 // µS, to parent
	Voltage         []float64 // mV at the start of the step
	Current         []float64 // nA, outward membrane current at Voltage
	Conductance     []float64 // µS, dI/dV of Current
}

// Matrix is the tree-structured system D·x + offdiag = RHS. U[i] holds both
// A[i][parent(i)] and A[parent(i)][i].
type Matrix struct {
	D   []float64
	U   []float64
	RHS []float64

	parent []int
	// order lists non-root nodes so that every node precedes its parent.
	order []int
	roots []int
}

// New builds an empty matrix for the tree given by parent, where parent[i]
// is -1 for a root. The elimination order is computed here, once.
func New(parent []int) (*Matrix, error) {
	n := len(parent)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty tree", cell.ErrInvalidTopology)
	}

	children := make([][]int, n)
	var roots []int
	for i, p := range parent {
		switch {
		case p == -1:
			roots = append(roots, i)
		case p < 0 || p >= n || p == i:
			return nil, fmt.Errorf("%w: node %d has parent %d", cell.ErrInvalidTopology, i, p)
		default:
			children[p] = append(children[p], i)
		}
	}

	// breadth-first from the roots gives root-to-leaves order; reversed it
	// is a valid elimination order
	bfs := make([]int, 0, n)
	bfs = append(bfs, roots...)
	for head := 0; head < len(bfs); head++ {
		bfs = append(bfs, children[bfs[head]]...)
	}
	if len(bfs) != n {
		return nil, fmt.Errorf("%w: %d of %d nodes unreachable from a root (cycle)", cell.ErrInvalidTopology, n-len(bfs), n)
	}

	order := make([]int, 0, n-len(roots))
	for i := len(bfs) - 1; i >= len(roots); i-- {
		order = append(order, bfs[i])
	}

	return &Matrix{
		D:      make([]float64, n),
		U:      make([]float64, n),
		RHS:    make([]float64, n),
		parent: append([]int(nil), parent...),
		order:  order,
		roots:  roots,
	}, nil
}

func (m *Matrix) Size() int { return len(m.D) }

func (m *Matrix) Parent() []int { return m.parent }

// Assemble fills the system for one backward Euler step of
//
//	C dV/dt = -Σ g_face (V - V_nbr) - I(V)
//
// with I linearised about the current voltage.
func (m *Matrix) Assemble(c Coefficients) {
	for i := range m.D {
		cdt := c.Capacitance[i] / c.Dt
		m.D[i] = cdt + c.Conductance[i]
		m.RHS[i] = (cdt+c.Conductance[i])*c.Voltage[i] - c.Current[i]
		m.U[i] = 0
	}
	for i, p := range m.parent {
		if p < 0 {
			continue
		}
		gf := c.FaceConductance[i]
		m.D[i] += gf
		m.D[p] += gf
		m.U[i] = -gf
	}
}

// Solve writes the solution into x. Elimination happens in place, so D and
// RHS are consumed; reassemble before solving again.
func (m *Matrix) Solve(x []float64) error {
	if len(x) != len(m.D) {
		return fmt.Errorf("matrix: solution has %d entries, system has %d", len(x), len(m.D))
	}

	// leaves to root
	for _, i := range m.order {
		d := m.D[i]
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return &SingularError{Index: i, Pivot: d}
		}
		p := m.parent[i]
		f := m.U[i] / d
		m.D[p] -= f * m.U[i]
		m.RHS[p] -= f * m.RHS[i]
	}

	for _, r := range m.roots {
		d := m.D[r]
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return &SingularError{Index: r, Pivot: d}
		}
		x[r] = m.RHS[r] / d
	}

	// root to leaves
	for k := len(m.order) - 1; k >= 0; k-- {
		i := m.order[k]
		x[i] = (m.RHS[i] - m.U[i]*x[m.parent[i]]) / m.D[i]
	}

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &SingularError{Index: i, Pivot: m.D[i]}
		}
	}
	return nil
}

// NumOffDiagonal returns the number of structurally non-zero off-diagonal
// entries, counting both triangles.
func (m *Matrix) NumOffDiagonal() int {
	n := 0
	for _, p := range m.parent {
		if p >= 0 {
			n += 2
		}
	}
	return n
}

// Dense expands the system into a full matrix.
func (m *Matrix) Dense() [][]float64 {
	n := len(m.D)
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		a[i][i] = m.D[i]
	}
	for i, p := range m.parent {
		if p >= 0 {
			a[i][p] = m.U[i]
			a[p][i] = m.U[i]
		}
	}
	return a
}
