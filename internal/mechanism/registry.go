package mechanism

import (
	"fmt"
	"sort"

	"github.com/san-kum/cablesim/internal/cell"
)

const (
	DefaultCelsius   = 6.3
	DefaultTableMin  = -100.0
	DefaultTableMax  = 100.0
	DefaultTableStep = 1.0
)

type factory func(r *Registry, nodes []int, areas []float64) (Mechanism, error)

// Registry creates mechanism instances and owns the state they share.
// It is immutable after NewRegistry returns.
type Registry struct {
	celsius   float64
	useTables bool
	tableStep float64
	rates     *RateTable
	factories map[string]factory
}

type Option func(*Registry)

// WithTemperature sets the temperature the hh rates are scaled to.
func WithTemperature(celsius float64) Option {
	return func(r *Registry) { r.celsius = celsius }
}

// WithTables enables or disables rate table lookup. Disabled tables
// evaluate the rate functions at every step.
func WithTables(enabled bool) Option {
	return func(r *Registry) { r.useTables = enabled }
}

// WithTableStep sets the voltage spacing of the rate table in mV.
func WithTableStep(step float64) Option {
	return func(r *Registry) {
		if step > 0 {
			r.tableStep = step
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		celsius:   DefaultCelsius,
		useTables: true,
		tableStep: DefaultTableStep,
		factories: make(map[string]factory),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.rates = NewRateTable(DefaultTableMin, DefaultTableMax, r.tableStep, r.celsius)

	r.factories["hh"] = newHH
	r.factories["pas"] = newPas
	r.factories["iclamp"] = newIClamp

	return r
}

// New instantiates the mechanism described by p on the given nodes. areas
// holds the membrane area (µm²) of each node.
func (r *Registry) New(p cell.Parameters, nodes []int, areas []float64) (Mechanism, error) {
	fn, ok := r.factories[p.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", cell.ErrUnknownMechanism, p.Name)
	}
	if len(nodes) != len(areas) {
		return nil, fmt.Errorf("mechanism %s: %d nodes but %d areas", p.Name, len(nodes), len(areas))
	}
	m, err := fn(r, append([]int(nil), nodes...), append([]float64(nil), areas...))
	if err != nil {
		return nil, err
	}
	for _, name := range p.Names() {
		v, _ := p.Get(name)
		if err := m.Set(name, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewClamp instantiates a current clamp for a stimulus resolved to node.
func (r *Registry) NewClamp(stim cell.Stimulus, node int) (Mechanism, error) {
	return r.New(IClampParameters(stim.Delay, stim.Duration, stim.Amplitude), []int{node}, []float64{0})
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Rates() *RateTable { return r.rates }

func (r *Registry) Celsius() float64 { return r.celsius }

func (r *Registry) rateAt(v float64) Rates {
	if r.useTables {
		return r.rates.At(v)
	}
	return r.rates.Exact(v)
}

// IClampParameters describes a current clamp of amplitude nA applied for
// duration ms after delay ms.
func IClampParameters(delay, duration, amplitude float64) cell.Parameters {
	return cell.NewParameters("iclamp", map[string]float64{
		"delay":     delay,
		"duration":  duration,
		"amplitude": amplitude,
	})
}
