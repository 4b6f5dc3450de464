package matrix

import (
	"errors"
	"fmt"
)

// ErrSingular indicates a zero or non-finite pivot, or a non-finite
// solution.
var ErrSingular = errors.New("matrix: singular system")

// SingularError identifies the row at which elimination broke down.
type SingularError struct {
	Index int
	Pivot float64
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("matrix: singular system at compartment %d (pivot %g)", e.Index, e.Pivot)
}

func (e *SingularError) Unwrap() error {
	return ErrSingular
}
