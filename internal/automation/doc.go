// Package automation scripts batches of runs: YAML scenarios that layer
// per-step overrides over a base configuration, and one-parameter sweeps
// such as firing rate against stimulus amplitude.
package automation
