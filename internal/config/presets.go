package config

import (
	"sort"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/sim"
)

func preset(model string, mod func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	mod(cfg)
	return cfg
}

func somaProbes() []sim.Probe {
	return []sim.Probe{{Name: "soma", Location: cell.Location{Segment: 0, Position: 0.5}, Threshold: sim.DefaultThreshold}}
}

var Presets = map[string]map[string]*Config{
	"ball_and_stick": {
		"validation": preset("ball_and_stick", func(c *Config) {}),
		"weak": preset("ball_and_stick", func(c *Config) {
			c.Stimulus.Amplitude = 0.1
		}),
		"long": preset("ball_and_stick", func(c *Config) {
			c.Dendrite.Length = 1000
			c.Compartments = 400
			c.Sweep = []int{10, 40, 160, 640}
		}),
		"warm": preset("ball_and_stick", func(c *Config) {
			c.Celsius = 16.3
		}),
	},
	"soma": {
		"rest": preset("soma", func(c *Config) {
			c.Stimulus.Amplitude = 0
			c.Probes = somaProbes()
			c.Sweep = nil
		}),
		"tonic": preset("soma", func(c *Config) {
			c.Stimulus = StimulusConfig{Location: cell.Location{Segment: 0, Position: 0.5}, Delay: 10, Duration: 100, Amplitude: 0.1}
			c.Duration = 120
			c.Probes = somaProbes()
			c.Sweep = nil
		}),
	},
	"branching": {
		"default": preset("branching", func(c *Config) {
			st := cell.BranchingStimulus
			c.Soma.Radius = cell.BranchingSomaRadius
			c.Stimulus = StimulusConfig{Location: st.Location, Delay: st.Delay, Duration: st.Duration, Amplitude: st.Amplitude}
			c.Compartments = 50
			c.Sweep = []int{5, 20, 80}
			c.Probes = []sim.Probe{
				{Name: "soma", Location: cell.Location{Segment: 0, Position: 0}, Threshold: sim.DefaultThreshold},
				{Name: "trunk", Location: cell.Location{Segment: 1, Position: 1}, Threshold: sim.DefaultThreshold},
				{Name: "stim", Location: cell.Location{Segment: 2, Position: 0.5}, Threshold: sim.DefaultThreshold},
			}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListModels() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
