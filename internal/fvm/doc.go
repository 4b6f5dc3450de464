// Package fvm drives a finite volume simulation of one cell.
//
// A [Cell] owns all per-run state: the compartment graph, the matrix,
// voltages and mechanism instances. It shares nothing with other runs
// except the read-only [mechanism.Registry].
//
// # Example
//
//	model, _ := fvm.New(c, mechanism.NewRegistry())
//	model.SetVoltage(-65)
//	model.Initialize()
//	for i := 0; i < steps; i++ {
//	    if err := model.Advance(0.025); err != nil {
//	        return err
//	    }
//	}
//
// # Thread Safety
//
// Cell instances are NOT thread-safe. Independent runs may proceed in
// parallel, each with its own Cell.
package fvm
