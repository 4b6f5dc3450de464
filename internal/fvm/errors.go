package fvm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized indicates Advance before Initialize.
	ErrNotInitialized = errors.New("fvm: advance before initialize")

	// ErrAlreadyInitialized indicates a second call to Initialize.
	ErrAlreadyInitialized = errors.New("fvm: already initialized")

	// ErrInvalidStep indicates a non-positive or non-finite timestep.
	ErrInvalidStep = errors.New("fvm: invalid timestep")
)

// StepError wraps a failure of one Advance with its position in the run.
type StepError struct {
	Step    int
	Time    float64
	Index   int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f ms) compartment %d: %v", e.Step, e.Time, e.Index, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
