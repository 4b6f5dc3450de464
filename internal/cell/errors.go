package cell

import "errors"

// Construction errors. Every error returned by this package wraps exactly
// one of these.
var (
	// ErrInvalidTopology indicates a bad parent reference or a tree that is
	// not rooted at a single soma.
	ErrInvalidTopology = errors.New("cell: invalid topology")

	// ErrInvalidGeometry indicates a non-positive radius, length or
	// compartment count.
	ErrInvalidGeometry = errors.New("cell: invalid geometry")

	// ErrUnknownMechanism indicates a lookup of a mechanism that is not
	// attached to the segment or not known to the registry.
	ErrUnknownMechanism = errors.New("cell: unknown mechanism")

	// ErrUnknownParameter indicates a parameter name the mechanism does not
	// declare.
	ErrUnknownParameter = errors.New("cell: unknown parameter")

	// ErrMechanismConflict indicates a second mechanism with the same name
	// on one segment.
	ErrMechanismConflict = errors.New("cell: mechanism conflict")

	// ErrInvalidSWC indicates a malformed SWC morphology file.
	ErrInvalidSWC = errors.New("cell: invalid swc")
)
