package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cablesim/internal/config"
	"github.com/san-kum/cablesim/internal/sim"
)

func tonic(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetPreset("soma", "tonic")
	if cfg == nil {
		t.Fatal("missing soma/tonic preset")
	}
	cfg.Duration = 60
	return cfg
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	data := `
name: resolution
description: coarse and fine ball and stick
steps:
  - compartments: 4
    duration: 20
    save_as: coarse
  - model: soma
    preset: rest
    amplitude: 0
    celsius: 16.3
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "resolution" || len(s.Steps) != 2 {
		t.Fatalf("scenario = %+v", s)
	}
	if s.Steps[0].Compartments != 4 || s.Steps[0].SaveAs != "coarse" {
		t.Errorf("step 1 = %+v", s.Steps[0])
	}
	if s.Steps[1].Amplitude == nil || *s.Steps[1].Amplitude != 0 {
		t.Error("explicit zero amplitude lost")
	}
	if s.Steps[1].Celsius == nil || *s.Steps[1].Celsius != 16.3 {
		t.Error("celsius lost")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: nothing\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(empty); !errors.Is(err, ErrEmptyScenario) {
		t.Errorf("err = %v, want ErrEmptyScenario", err)
	}
	if _, err := LoadScenario(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStepApply(t *testing.T) {
	base := config.DefaultConfig()
	base.Workers = 3
	amp := 0.5

	tests := []struct {
		name    string
		step    ScenarioStep
		check   func(*config.Config) bool
		wantErr error
	}{
		{
			name:  "empty step keeps base",
			step:  ScenarioStep{},
			check: func(c *config.Config) bool { return c.Model == base.Model && c.Compartments == base.Compartments },
		},
		{
			name:  "overrides",
			step:  ScenarioStep{Compartments: 8, Dt: 0.01, Duration: 10, Amplitude: &amp},
			check: func(c *config.Config) bool {
				return c.Compartments == 8 && c.Dt == 0.01 && c.Duration == 10 && c.Stimulus.Amplitude == 0.5
			},
		},
		{
			name:  "preset keeps base runtime settings",
			step:  ScenarioStep{Model: "soma", Preset: "rest"},
			check: func(c *config.Config) bool {
				return c.Model == "soma" && c.Stimulus.Amplitude == 0 && c.Workers == 3
			},
		},
		{
			name:    "unknown preset",
			step:    ScenarioStep{Preset: "missing"},
			wantErr: ErrUnknownPreset,
		},
		{
			name:    "invalid result",
			step:    ScenarioStep{Dt: -1},
			wantErr: sim.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.step.Apply(base)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(cfg) {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}

	if base.Compartments != config.DefaultCompartments || base.Stimulus.Amplitude != 0.3 {
		t.Error("Apply modified the base config")
	}
}

func TestRunScenario(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 10
	scenario := &Scenario{
		Name: "short",
		Steps: []ScenarioStep{
			{Compartments: 4, SaveAs: "coarse"},
			{Compartments: 16},
		},
	}

	results, err := RunScenario(context.Background(), scenario, base, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Name != "coarse" || results[1].Name != "ball_and_stick-2" {
		t.Errorf("names %q %q", results[0].Name, results[1].Name)
	}
	if results[0].Result.Compartments != 5 || results[1].Result.Compartments != 17 {
		t.Errorf("compartments %d %d", results[0].Result.Compartments, results[1].Result.Compartments)
	}

	bad := &Scenario{Steps: []ScenarioStep{{Compartments: 4}, {Preset: "missing"}}}
	results, err = RunScenario(context.Background(), bad, base, nil)
	if !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("err = %v, want ErrUnknownPreset", err)
	}
	if len(results) != 1 {
		t.Errorf("expected the completed step, got %d", len(results))
	}

	if _, err := RunScenario(context.Background(), &Scenario{}, base, nil); !errors.Is(err, ErrEmptyScenario) {
		t.Errorf("err = %v", err)
	}
}

func TestSweepValues(t *testing.T) {
	tests := []struct {
		name    string
		sweep   ParameterSweep
		want    []float64
		wantErr bool
	}{
		{"single", ParameterSweep{ParamMin: 0.2, ParamMax: 1, NumSteps: 1}, []float64{0.2}, false},
		{"three", ParameterSweep{ParamMin: 0, ParamMax: 1, NumSteps: 3}, []float64{0, 0.5, 1}, false},
		{"no steps", ParameterSweep{NumSteps: 0}, nil, true},
		{"reversed", ParameterSweep{ParamMin: 1, ParamMax: 0, NumSteps: 2}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sweep.Values()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSweep) {
					t.Errorf("err = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v", got)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRunSweepFiringCurve(t *testing.T) {
	sweep := &ParameterSweep{
		ParamName: "amplitude",
		ParamMin:  0,
		ParamMax:  0.1,
		NumSteps:  2,
		Probe:     "soma",
		Workers:   2,
	}
	results, err := RunSweep(context.Background(), sweep, tonic(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].ParamValue != 0 || len(results[0].Spikes) != 0 || results[0].Rate != 0 {
		t.Errorf("unstimulated point = %+v", results[0])
	}
	if len(results[1].Spikes) < 2 || results[1].Rate <= 0 {
		t.Errorf("stimulated point = %+v", results[1])
	}
	if results[1].Peak <= 0 {
		t.Errorf("peak = %g", results[1].Peak)
	}

	first, ok := FirstFiring(results)
	if !ok || first != 0.1 {
		t.Errorf("first firing = %g, %v", first, ok)
	}
}

func TestRunSweepErrors(t *testing.T) {
	cfg := tonic(t)
	tests := []struct {
		name  string
		sweep ParameterSweep
		want  error
	}{
		{"param", ParameterSweep{ParamName: "g_na", NumSteps: 2, ParamMax: 1}, ErrUnknownParam},
		{"steps", ParameterSweep{ParamName: "amplitude"}, ErrInvalidSweep},
		{"probe", ParameterSweep{ParamName: "amplitude", NumSteps: 1, Probe: "axon"}, ErrUnknownProbe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunSweep(context.Background(), &tt.sweep, cfg, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFiringRate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Stimulus.Delay = 10
	cfg.Stimulus.Duration = 50
	cfg.Duration = 100

	// 2 spikes inside [10, 60) -> 40 Hz
	if got := firingRate([]float64{5, 20, 40, 70}, cfg); math.Abs(got-40) > 1e-9 {
		t.Errorf("rate = %g, want 40", got)
	}

	cfg.Stimulus.Amplitude = 0
	// whole run: 4 spikes in 100 ms
	if got := firingRate([]float64{5, 20, 40, 70}, cfg); math.Abs(got-40) > 1e-9 {
		t.Errorf("rate = %g, want 40", got)
	}
}
