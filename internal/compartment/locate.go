package compartment

import (
	"fmt"
	"math"

	"github.com/san-kum/cablesim/internal/cell"
)

// FindCompartmentIndex maps a location to a node.
//
// The soma maps to its single node. On a cable with n compartments,
// compartment k covers the fractional interval (k/n, (k+1)/n] and is
// represented by the node at its distal end, so the index is
// ceil(n·pos)-1 clamped to [0, n-1]. A position on a boundary belongs to
// the compartment nearer the root, and position 0 maps to the first
// compartment of the segment. For pos = j/m with j > 0 the result is the
// node located exactly at pos under every resolution n that is a multiple
// of m.
func FindCompartmentIndex(loc cell.Location, g *Graph) (int, error) {
	if loc.Segment < 0 || loc.Segment >= g.NumSegments() {
		return 0, fmt.Errorf("%w: location %s references no segment", cell.ErrInvalidTopology, loc)
	}
	if loc.Position < 0 || loc.Position > 1 || math.IsNaN(loc.Position) {
		return 0, fmt.Errorf("%w: location %s position outside [0,1]", cell.ErrInvalidGeometry, loc)
	}

	first := g.SegmentIndex[loc.Segment]
	n := g.Compartments(loc.Segment)
	if n == 1 {
		return first, nil
	}

	k := int(math.Ceil(float64(n)*loc.Position)) - 1
	if k < 0 {
		k = 0
	}
	if k > n-1 {
		k = n - 1
	}
	return first + k, nil
}
