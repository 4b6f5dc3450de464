// Package cell describes the morphology of a single neuron.
//
// A [Cell] is a rooted tree of segments: exactly one spherical soma at
// index 0 and any number of cables, each attached to an earlier segment.
// Segments carry mechanism [Parameters] and a compartment count that
// controls spatial resolution when the cell is discretised.
//
// # Example
//
//	c := cell.New()
//	soma, _ := c.AddSoma(6.30785)
//	soma.AddMechanism(cell.HHParameters())
//	dend, _ := c.AddCable(0, cell.Dendrite, 0.5, 0.5, 200)
//	dend.AddMechanism(cell.PasParameters())
//	dend.SetCompartments(11)
//
// Construction errors are reported at the call that caused them and wrap
// one of the sentinel errors in this package, so callers can separate
// structural mistakes ([ErrInvalidTopology]) from bad numbers
// ([ErrInvalidGeometry]).
package cell
