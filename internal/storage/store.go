package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/cablesim/internal/sim"
)

var (
	ErrNotFound       = errors.New("storage: run not found")
	ErrNotInitialized = errors.New("storage: store is not initialized")
)

// Store persists simulation runs.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, meta RunMetadata, result *sim.Result) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, runID string) (*RunMetadata, error)
	LoadTraces(ctx context.Context, runID string) (*Traces, error)
	Close() error
}

type RunMetadata struct {
	ID             string               `json:"id"`
	Model          string               `json:"model"`
	Timestamp      time.Time            `json:"timestamp"`
	Compartments   int                  `json:"compartments"`
	Dt             float64              `json:"dt"`
	Duration       float64              `json:"duration"`
	InitialVoltage float64              `json:"initial_voltage"`
	StepsTaken     int                  `json:"steps_taken"`
	Probes         map[string]int       `json:"probes"`
	Spikes         map[string][]float64 `json:"spikes"`
	Metrics        map[string]float64   `json:"metrics"`
}

// Traces holds the recorded voltages of a run, one series per probe.
type Traces struct {
	Names  []string    `json:"names"`
	Times  []float64   `json:"times"`
	Values [][]float64 `json:"values"`
}

// Trace returns the series recorded for name.
func (t *Traces) Trace(name string) ([]float64, bool) {
	for i, n := range t.Names {
		if n == name {
			return t.Values[i], true
		}
	}
	return nil, false
}

// NewMetadata describes a finished run.
func NewMetadata(model string, cfg sim.Config, result *sim.Result) RunMetadata {
	return RunMetadata{
		Model:          model,
		Compartments:   result.Compartments,
		Dt:             cfg.Dt,
		Duration:       cfg.Duration,
		InitialVoltage: cfg.InitialVoltage,
		StepsTaken:     result.StepsTaken,
		Probes:         result.Probes,
		Spikes:         result.Spikes,
		Metrics:        result.Metrics,
	}
}

// prepare assigns the run ID and timestamp when unset.
func prepare(meta RunMetadata) RunMetadata {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	return meta
}

func tracesOf(result *sim.Result) *Traces {
	names := make([]string, 0, len(result.Traces))
	for name := range result.Traces {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &Traces{
		Names:  names,
		Times:  result.Times,
		Values: make([][]float64, len(names)),
	}
	for i, name := range names {
		t.Values[i] = result.Traces[name]
	}
	return t
}

func sortRuns(runs []RunMetadata) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
}
