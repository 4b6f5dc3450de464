package mechanism

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/cablesim/internal/cell"
)

func TestRatesAtRest(t *testing.T) {
	reg := NewRegistry(WithTables(false))
	r := reg.Rates().Exact(-65)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"minf", r.MInf, 0.0529},
		{"hinf", r.HInf, 0.5961},
		{"ninf", r.NInf, 0.3177},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-3 {
			t.Errorf("%s at -65 mV: expected %.4f, got %.4f", tt.name, tt.want, tt.got)
		}
	}
}

func TestVtrapSingularity(t *testing.T) {
	// alpha_m has a removable singularity at -40 mV
	reg := NewRegistry(WithTables(false))
	at := reg.Rates().Exact(-40)
	near := reg.Rates().Exact(-40 + 1e-4)
	if math.IsNaN(at.MInf) || math.IsInf(at.MTau, 0) {
		t.Fatalf("singular rates at -40 mV: %+v", at)
	}
	if math.Abs(at.MInf-near.MInf) > 1e-4 {
		t.Errorf("minf discontinuous at -40 mV: %f vs %f", at.MInf, near.MInf)
	}
}

func TestRateTableInterpolation(t *testing.T) {
	table := NewRateTable(-100, 100, 1, DefaultCelsius)
	if table.Len() != 201 {
		t.Fatalf("expected 201 entries, got %d", table.Len())
	}

	for _, v := range []float64{-90.3, -65, -64.5, -40.2, 0.7, 35.25} {
		got := table.At(v)
		want := table.Exact(v)
		if math.Abs(got.MInf-want.MInf) > 1e-2 || math.Abs(got.NInf-want.NInf) > 1e-2 {
			t.Errorf("v=%.2f: table %+v too far from exact %+v", v, got, want)
		}
	}

	// grid points are exact
	if got, want := table.At(-65), table.Exact(-65); got != want {
		t.Errorf("grid point mismatch: %+v vs %+v", got, want)
	}
	// out of range falls back to direct evaluation
	if got, want := table.At(150), table.Exact(150); got != want {
		t.Errorf("out of range mismatch: %+v vs %+v", got, want)
	}
}

func TestTemperatureScaling(t *testing.T) {
	cold := NewRegistry().Rates().Exact(-65)
	warm := NewRegistry(WithTemperature(16.3)).Rates().Exact(-65)
	if math.Abs(cold.MTau/warm.MTau-3) > 1e-9 {
		t.Errorf("q10 of 3 expected, got %f", cold.MTau/warm.MTau)
	}
	if cold.MInf != warm.MInf {
		t.Error("steady states should not depend on temperature")
	}
}

func TestRegistryNew(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.New(cell.NewParameters("kdr", nil), []int{0}, []float64{1}); !errors.Is(err, cell.ErrUnknownMechanism) {
		t.Errorf("expected ErrUnknownMechanism, got %v", err)
	}

	bad := cell.NewParameters("hh", map[string]float64{"gnabar": 0.1, "gcabar": 0.2})
	_, err := reg.New(bad, []int{0}, []float64{1})
	if !errors.Is(err, cell.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
	if errors.Is(err, cell.ErrUnknownMechanism) {
		t.Error("parameter error reported as mechanism error")
	}

	p := cell.PasParameters()
	p.Set("g", 0.002)
	m, err := reg.New(p, []int{3, 4}, []float64{10, 10})
	if err != nil {
		t.Fatalf("new pas: %v", err)
	}
	if g, _ := m.Get("g"); g != 0.002 {
		t.Errorf("expected configured g=0.002, got %g", g)
	}
	if len(m.Nodes()) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(m.Nodes()))
	}

	if _, err := reg.New(p, []int{1}, nil); err == nil {
		t.Error("expected error for mismatched areas")
	}

	names := reg.Names()
	if len(names) != 3 || names[0] != "hh" || names[1] != "iclamp" || names[2] != "pas" {
		t.Errorf("unexpected mechanism names %v", names)
	}
}

func TestPasCurrent(t *testing.T) {
	reg := NewRegistry()
	m, _ := reg.New(cell.PasParameters(), []int{1}, []float64{100})

	v := []float64{0, -55}
	i := make([]float64, 2)
	g := make([]float64, 2)
	m.Current(v, 0, i, g)

	// 0.001 S/cm² on 100 µm² is 1e-3 µS, driven 10 mV above e
	if math.Abs(g[1]-1e-3) > 1e-15 {
		t.Errorf("expected conductance 1e-3 µS, got %g", g[1])
	}
	if math.Abs(i[1]-1e-2) > 1e-15 {
		t.Errorf("expected current 1e-2 nA, got %g", i[1])
	}
	if i[0] != 0 || g[0] != 0 {
		t.Error("pas wrote to a node it does not own")
	}
}

func TestIClampWindow(t *testing.T) {
	reg := NewRegistry()
	m, err := reg.NewClamp(cell.Stimulus{Delay: 5, Duration: 80, Amplitude: 0.3}, 0)
	if err != nil {
		t.Fatalf("new clamp: %v", err)
	}

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0},
		{4.999, 0},
		{5, -0.3},
		{50, -0.3},
		{84.99, -0.3},
		{85, 0},
	}
	for _, tt := range tests {
		i := []float64{0}
		g := []float64{0}
		m.Current([]float64{-65}, tt.t, i, g)
		if i[0] != tt.want {
			t.Errorf("t=%g: expected %g, got %g", tt.t, tt.want, i[0])
		}
		if g[0] != 0 {
			t.Errorf("t=%g: clamp should not add conductance", tt.t)
		}
	}
}

func TestHHRestingState(t *testing.T) {
	reg := NewRegistry()
	m, err := reg.New(cell.HHParameters(), []int{0}, []float64{500})
	if err != nil {
		t.Fatalf("new hh: %v", err)
	}
	hh := m.(*HH)

	v := []float64{-65}
	hh.Init(v)
	m0, h0, n0 := hh.Gates(0)

	for step := 0; step < 1000; step++ {
		hh.Advance(v, 0.025)
	}
	m1, h1, n1 := hh.Gates(0)
	if math.Abs(m1-m0) > 1e-12 || math.Abs(h1-h0) > 1e-12 || math.Abs(n1-n0) > 1e-12 {
		t.Errorf("gates drifted at clamped steady state: (%g,%g,%g) -> (%g,%g,%g)", m0, h0, n0, m1, h1, n1)
	}
}

func TestHHGatesStayBounded(t *testing.T) {
	reg := NewRegistry()
	m, _ := reg.New(cell.HHParameters(), []int{0}, []float64{500})
	hh := m.(*HH)
	hh.Init([]float64{-65})

	// a large step at a depolarised voltage must not overshoot
	v := []float64{40}
	for step := 0; step < 10; step++ {
		hh.Advance(v, 5)
		gm, gh, gn := hh.Gates(0)
		for _, x := range []float64{gm, gh, gn} {
			if x < 0 || x > 1 {
				t.Fatalf("gate left [0,1]: %g", x)
			}
		}
	}
}

func TestHHConductance(t *testing.T) {
	reg := NewRegistry()
	m, _ := reg.New(cell.HHParameters(), []int{0}, []float64{100})
	m.Init([]float64{-65})

	i := []float64{0}
	g := []float64{0}
	m.Current([]float64{-65}, 0, i, g)
	if g[0] <= 0 {
		t.Fatalf("expected positive conductance, got %g", g[0])
	}
	// hh parameters are close to, but not exactly at, rest at -65 mV
	if math.Abs(i[0]) > 1e-2 {
		t.Errorf("expected small resting current, got %g nA", i[0])
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := reg.New(cell.HHParameters(), []int{0}, []float64{500})
			if err != nil {
				t.Error(err)
				return
			}
			v := []float64{-65}
			m.Init(v)
			for i := 0; i < 100; i++ {
				v[0] += 0.5
				m.Advance(v, 0.025)
			}
		}()
	}
	wg.Wait()
}
