// Package fixture reads and writes reference spike data.
//
// A fixture is a JSON array of runs, one per resolution:
//
//	[{"nseg": 200, "dt": 0.001,
//	  "measurements": {"soma": {"spikes": [6.1, 20.3], "thresh": -20}}}]
package fixture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/san-kum/cablesim/internal/sim"
)

// ErrEmpty indicates a missing, empty or malformed fixture.
var ErrEmpty = errors.New("fixture: no usable runs")

type Measurement struct {
	Spikes    []float64 `json:"spikes"`
	Threshold float64   `json:"thresh"`
}

type Run struct {
	Compartments int                    `json:"nseg"`
	Dt           float64                `json:"dt"`
	Measurements map[string]Measurement `json:"measurements"`
}

func Load(path string) ([]Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmpty, err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) ([]Run, error) {
	var runs []Run
	if err := json.NewDecoder(r).Decode(&runs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmpty, err)
	}
	if len(runs) == 0 {
		return nil, ErrEmpty
	}
	for i, run := range runs {
		if run.Compartments < 1 || !(run.Dt > 0) || len(run.Measurements) == 0 {
			return nil, fmt.Errorf("%w: run %d is incomplete", ErrEmpty, i)
		}
	}
	return runs, nil
}

// Write stores runs as indented JSON, creating parent directories.
func Write(path string, runs []Run) error {
	if len(runs) == 0 {
		return ErrEmpty
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Finest returns the run with the most compartments, preferring the
// smaller timestep on ties.
func Finest(runs []Run) (Run, error) {
	if len(runs) == 0 {
		return Run{}, ErrEmpty
	}
	best := runs[0]
	for _, r := range runs[1:] {
		if r.Compartments > best.Compartments ||
			(r.Compartments == best.Compartments && r.Dt < best.Dt) {
			best = r
		}
	}
	return best, nil
}

// Resolutions returns the distinct compartment counts in ascending order.
func Resolutions(runs []Run) []int {
	seen := make(map[int]bool, len(runs))
	var counts []int
	for _, r := range runs {
		if !seen[r.Compartments] {
			seen[r.Compartments] = true
			counts = append(counts, r.Compartments)
		}
	}
	sort.Ints(counts)
	return counts
}

// FromResult records the spikes of a simulation run.
func FromResult(compartments int, dt float64, res *sim.Result, probes []sim.Probe) Run {
	run := Run{
		Compartments: compartments,
		Dt:           dt,
		Measurements: make(map[string]Measurement, len(probes)),
	}
	for _, p := range probes {
		spikes := res.Spikes[p.Name]
		if spikes == nil {
			spikes = []float64{}
		}
		run.Measurements[p.Name] = Measurement{Spikes: spikes, Threshold: p.Threshold}
	}
	return run
}

// Probes returns the measured probe names in sorted order.
func (r Run) Probes() []string {
	names := make([]string, 0, len(r.Measurements))
	for name := range r.Measurements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
