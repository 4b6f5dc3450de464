package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/mechanism"
	"github.com/san-kum/cablesim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel          = "ball_and_stick"
	DefaultDt             = 0.025
	DefaultDuration       = 100.0
	DefaultInitialVoltage = -65.0
	DefaultCompartments   = 100
	DefaultCelsius        = mechanism.DefaultCelsius
	DefaultTableStep      = mechanism.DefaultTableStep
	DefaultStoreKind      = "file"
	DefaultStorePath      = "runs"
	DefaultLogLevel       = "info"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Model          string  `yaml:"model"`
	Dt             float64 `yaml:"dt"`
	Duration       float64 `yaml:"duration"`
	InitialVoltage float64 `yaml:"initial_voltage"`
	Compartments   int     `yaml:"compartments"`
	Sweep          []int   `yaml:"sweep"`
	Celsius        float64 `yaml:"celsius"`
	Tables         bool    `yaml:"tables"`
	TableStep      float64 `yaml:"table_step"`
	Workers        int     `yaml:"workers"`
	LogLevel       string  `yaml:"log_level"`
	Fixture        string  `yaml:"fixture"`
	Morphology     string  `yaml:"morphology"`

	Soma     SomaConfig     `yaml:"soma"`
	Dendrite CableConfig    `yaml:"dendrite"`
	Axon     CableConfig    `yaml:"axon"`
	Stimulus StimulusConfig `yaml:"stimulus"`
	Probes   []sim.Probe    `yaml:"probes"`
	Store    StoreConfig    `yaml:"store"`
}

type SomaConfig struct {
	Radius    float64 `yaml:"radius"`
	Mechanism string  `yaml:"mechanism"`
}

type CableConfig struct {
	Length    float64 `yaml:"length"`
	Radius    float64 `yaml:"radius"`
	RL        float64 `yaml:"r_l"`
	Mechanism string  `yaml:"mechanism"`
}

type StimulusConfig struct {
	Location  cell.Location `yaml:"location"`
	Delay     float64       `yaml:"delay"`
	Duration  float64       `yaml:"duration"`
	Amplitude float64       `yaml:"amplitude"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:          DefaultModel,
		Dt:             DefaultDt,
		Duration:       DefaultDuration,
		InitialVoltage: DefaultInitialVoltage,
		Compartments:   DefaultCompartments,
		Sweep:          []int{4, 16, 64, 256},
		Celsius:        DefaultCelsius,
		Tables:         true,
		TableStep:      DefaultTableStep,
		LogLevel:       DefaultLogLevel,
		Fixture:        "testdata/ball_and_stick.json",
		Soma: SomaConfig{
			Radius:    cell.BallAndStickSomaRadius,
			Mechanism: "hh",
		},
		Dendrite: CableConfig{
			Length:    200,
			Radius:    0.5,
			RL:        100,
			Mechanism: "pas",
		},
		Axon: CableConfig{
			RL:        100,
			Mechanism: "hh",
		},
		Stimulus: StimulusConfig{
			Location:  cell.Location{Segment: 1, Position: 1},
			Delay:     5,
			Duration:  80,
			Amplitude: 0.3,
		},
		Probes: []sim.Probe{
			{Name: "soma", Location: cell.Location{Segment: 0, Position: 0}, Threshold: sim.DefaultThreshold},
			{Name: "dend", Location: cell.Location{Segment: 1, Position: 0.5}, Threshold: sim.DefaultThreshold},
			{Name: "clamp", Location: cell.Location{Segment: 1, Position: 1}, Threshold: sim.DefaultThreshold},
		},
		Store: StoreConfig{
			Kind: DefaultStoreKind,
			Path: DefaultStorePath,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	if c.Compartments < 1 {
		return fmt.Errorf("%w: compartments must be at least 1, got %d", ErrInvalid, c.Compartments)
	}
	for _, n := range c.Sweep {
		if n < 1 {
			return fmt.Errorf("%w: sweep count %d", ErrInvalid, n)
		}
	}
	if !(c.TableStep > 0) || math.IsInf(c.TableStep, 0) {
		return fmt.Errorf("%w: table step must be positive, got %g", ErrInvalid, c.TableStep)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative workers", ErrInvalid)
	}
	if c.Model == "swc" && c.Morphology == "" {
		return fmt.Errorf("%w: the swc model needs a morphology file", ErrInvalid)
	}
	if len(c.Probes) == 0 {
		return fmt.Errorf("%w: no probes", ErrInvalid)
	}
	return nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:             c.Dt,
		Duration:       c.Duration,
		InitialVoltage: c.InitialVoltage,
	}
}

func (c *Config) Registry() *mechanism.Registry {
	return mechanism.NewRegistry(
		mechanism.WithTemperature(c.Celsius),
		mechanism.WithTables(c.Tables),
		mechanism.WithTableStep(c.TableStep),
	)
}

// Counts returns the sweep resolutions, or the single configured
// resolution when no sweep is set.
func (c *Config) Counts() []int {
	if len(c.Sweep) == 0 {
		return []int{c.Compartments}
	}
	return append([]int(nil), c.Sweep...)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Sweep = append([]int(nil), c.Sweep...)
	out.Probes = append([]sim.Probe(nil), c.Probes...)
	return &out
}
