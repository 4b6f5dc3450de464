package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cablesim/internal/cell"
)

// DefaultThreshold is the spike detection threshold in mV.
const DefaultThreshold = -20.0

var (
	ErrInvalidConfig = errors.New("sim: invalid config")
	ErrInvalidProbe  = errors.New("sim: invalid probe")
)

// Probe records the voltage of the compartment containing Location.
type Probe struct {
	Name      string        `json:"name" yaml:"name"`
	Location  cell.Location `json:"location" yaml:"location"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
}

// Metric is updated once per recorded sample with the compartment
// voltages in mV and the time in ms.
type Metric interface {
	Name() string
	Observe(v []float64, t float64)
	Value() float64
	Reset()
}

// Binder is implemented by metrics that watch a location. Bind is called
// with the resolver of the run's discretisation before the first sample.
type Binder interface {
	Bind(locate func(cell.Location) (int, error)) error
}

type Config struct {
	Dt             float64 `json:"dt" yaml:"dt"`
	Duration       float64 `json:"duration" yaml:"duration"`
	InitialVoltage float64 `json:"initial_voltage" yaml:"initial_voltage"`
}

func DefaultConfig() Config {
	return Config{
		Dt:             0.025,
		Duration:       100,
		InitialVoltage: -65,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.Dt > c.Duration {
		return fmt.Errorf("%w: dt %g exceeds duration %g", ErrInvalidConfig, c.Dt, c.Duration)
	}
	if math.IsNaN(c.InitialVoltage) || math.IsInf(c.InitialVoltage, 0) {
		return fmt.Errorf("%w: initial voltage %g", ErrInvalidConfig, c.InitialVoltage)
	}
	return nil
}

// Steps is the number of steps of Dt needed to cover Duration.
func (c Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

type Result struct {
	// Compartments is the size of the discretisation.
	Compartments int `json:"compartments"`
	// Probes maps probe names to compartment indices.
	Probes  map[string]int       `json:"probes"`
	Times   []float64            `json:"-"`
	Traces  map[string][]float64 `json:"-"`
	Spikes  map[string][]float64 `json:"spikes"`
	Metrics map[string]float64   `json:"metrics"`

	StepsTaken int `json:"steps_taken"`
}

func validateProbes(probes []Probe) error {
	seen := make(map[string]bool, len(probes))
	for _, p := range probes {
		if p.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidProbe)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidProbe, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
