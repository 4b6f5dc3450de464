// Package report renders simulation and validation results for the
// terminal.
//
//   - [ConvergenceTable] and [RunSummary]: lipgloss styled text tables
//   - [ErrorPlot] and [TracePlot]: asciigraph line plots
//   - [SweepModel]: Bubble Tea progress view for resolution sweeps
package report
