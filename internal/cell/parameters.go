package cell

import (
	"fmt"
	"sort"
)

// MembraneMechanism is the reserved name of the passive membrane
// properties every segment carries.
const MembraneMechanism = "membrane"

// Parameters is a named mechanism configuration. The set of names is
// fixed when the value is created; Set cannot introduce new names.
type Parameters struct {
	Name   string
	values map[string]float64
}

// NewParameters declares a mechanism with the given default values.
func NewParameters(name string, defaults map[string]float64) Parameters {
	values := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	return Parameters{Name: name, values: values}
}

func MembraneParameters() Parameters {
	return NewParameters(MembraneMechanism, map[string]float64{
		"c_m": 0.01, // F/m^2
		"r_L": 100,  // Ω·cm
	})
}

// HHParameters are the squid axon channel densities (S/cm^2) and reversal
// potentials (mV).
func HHParameters() Parameters {
	return NewParameters("hh", map[string]float64{
		"gnabar": 0.12,
		"gkbar":  0.036,
		"gl":     0.0003,
		"el":     -54.3,
		"ena":    50,
		"ek":     -77,
	})
}

func PasParameters() Parameters {
	return NewParameters("pas", map[string]float64{
		"g": 0.001,
		"e": -65,
	})
}

// channels are the membrane channel mechanisms a segment accepts, with
// their declared parameters.
var channels = map[string]func() Parameters{
	"hh":  HHParameters,
	"pas": PasParameters,
}

// ChannelNames lists the mechanisms AddMechanism accepts.
func ChannelNames() []string {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkChannel reports whether p names a known channel and declares only
// parameters that channel has.
func checkChannel(p Parameters) error {
	declared, ok := channels[p.Name]
	if !ok {
		return fmt.Errorf("%w: %q is not a membrane channel (have %v)", ErrUnknownMechanism, p.Name, ChannelNames())
	}
	defaults := declared()
	for _, name := range p.Names() {
		if _, err := defaults.Get(name); err != nil {
			return err
		}
	}
	return nil
}

func (p Parameters) Get(name string) (float64, error) {
	v, ok := p.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParameter, p.Name, name)
	}
	return v, nil
}

func (p Parameters) Set(name string, value float64) error {
	if _, ok := p.values[name]; !ok {
		return fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParameter, p.Name, name)
	}
	p.values[name] = value
	return nil
}

// Names returns the declared parameter names in sorted order.
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of the parameter map.
func (p Parameters) Values() map[string]float64 {
	out := make(map[string]float64, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	return NewParameters(p.Name, p.values)
}
