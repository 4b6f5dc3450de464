package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cablesim/internal/fixture"
	"github.com/san-kum/cablesim/internal/spike"
)

func outcome(n int, candidate map[string][]float64) Outcome {
	baseline := []float64{10, 20, 30}
	o := Outcome{Compartments: n, Comparisons: make(map[string]spike.Comparison)}
	for name, spikes := range candidate {
		o.Comparisons[name] = spike.Compare(spikes, baseline)
	}
	return o
}

func TestCheckConvergence(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome
		wantErr  bool
	}{
		{"empty", nil, false},
		{"single", []Outcome{outcome(1, map[string][]float64{"soma": {11, 21, 31}})}, false},
		{"decreasing", []Outcome{
			outcome(1, map[string][]float64{"soma": {11, 21, 31}, "dend": {12}}),
			outcome(10, map[string][]float64{"soma": {10.5, 20, 30}, "dend": {11}}),
			outcome(100, map[string][]float64{"soma": {10.1, 20, 30}, "dend": {10}}),
		}, false},
		{"stalls", []Outcome{
			outcome(1, map[string][]float64{"soma": {11}}),
			outcome(10, map[string][]float64{"soma": {11}}),
		}, true},
		{"one probe grows", []Outcome{
			outcome(1, map[string][]float64{"soma": {11}, "dend": {10.1}}),
			outcome(10, map[string][]float64{"soma": {10.5}, "dend": {10.2}}),
		}, true},
		{"bad comparisons never converge", []Outcome{
			outcome(1, map[string][]float64{"soma": nil}),
			outcome(10, map[string][]float64{"soma": nil}),
		}, true},
		{"recovers from bad", []Outcome{
			outcome(1, map[string][]float64{"soma": nil}),
			outcome(10, map[string][]float64{"soma": {10.5}}),
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConvergence(tt.outcomes)
			if tt.wantErr != (err != nil) {
				t.Fatalf("CheckConvergence() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNotConverging) {
				t.Errorf("expected ErrNotConverging, got %v", err)
			}
		})
	}
}

func TestCheckAccuracy(t *testing.T) {
	coarse := outcome(1, map[string][]float64{"soma": {15}})
	fine := outcome(100, map[string][]float64{"soma": {10.001, 20.002, 30}})

	if err := CheckAccuracy([]Outcome{coarse, fine}, DefaultAccuracy); err != nil {
		t.Errorf("fine outcome rejected: %v", err)
	}
	if err := CheckAccuracy([]Outcome{fine, coarse}, DefaultAccuracy); !errors.Is(err, ErrInaccurate) {
		t.Errorf("coarse outcome accepted: %v", err)
	}
	if err := CheckAccuracy(nil, DefaultAccuracy); !errors.Is(err, fixture.ErrEmpty) {
		t.Errorf("no outcomes: %v", err)
	}
}

func TestWorst(t *testing.T) {
	o := outcome(4, map[string][]float64{
		"soma":  {10.1},
		"dend":  {12},
		"clamp": {10},
	})
	name, cmp := o.Worst()
	if name != "dend" {
		t.Errorf("worst = %s", name)
	}
	if math.Abs(cmp.MaxRelativeError()-0.2) > 1e-12 {
		t.Errorf("worst error = %g", cmp.MaxRelativeError())
	}
}

func TestBallAndStickProbes(t *testing.T) {
	probes := BallAndStickProbes()
	if len(probes) != 3 {
		t.Fatalf("got %d probes", len(probes))
	}
	for _, p := range probes {
		if p.Threshold != -20 {
			t.Errorf("%s threshold = %g", p.Name, p.Threshold)
		}
	}
}
