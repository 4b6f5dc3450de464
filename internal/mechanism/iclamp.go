package mechanism

import (
	"fmt"

	"github.com/san-kum/cablesim/internal/cell"
)

// IClamp injects Amplitude nA into a single node while
// Delay <= t < Delay+Duration.
type IClamp struct {
	node int

	Delay     float64
	Duration  float64
	Amplitude float64
}

func newIClamp(_ *Registry, nodes []int, _ []float64) (Mechanism, error) {
	if len(nodes) != 1 {
		return nil, fmt.Errorf("iclamp: expected exactly one node, got %d", len(nodes))
	}
	return &IClamp{node: nodes[0]}, nil
}

func (c *IClamp) Name() string               { return "iclamp" }
func (c *IClamp) Nodes() []int               { return []int{c.node} }
func (c *IClamp) Init([]float64)             {}
func (c *IClamp) Advance([]float64, float64) {}

// Active reports whether the clamp is injecting at time t.
func (c *IClamp) Active(t float64) bool {
	return t >= c.Delay && t < c.Delay+c.Duration
}

func (c *IClamp) Current(v []float64, t float64, i, g []float64) {
	if c.Active(t) {
		i[c.node] -= c.Amplitude
	}
}

func (c *IClamp) Get(name string) (float64, error) {
	switch name {
	case "delay":
		return c.Delay, nil
	case "duration":
		return c.Duration, nil
	case "amplitude":
		return c.Amplitude, nil
	}
	return 0, fmt.Errorf("%w: iclamp has no parameter %q", cell.ErrUnknownParameter, name)
}

func (c *IClamp) Set(name string, value float64) error {
	switch name {
	case "delay":
		c.Delay = value
	case "duration":
		c.Duration = value
	case "amplitude":
		c.Amplitude = value
	default:
		return fmt.Errorf("%w: iclamp has no parameter %q", cell.ErrUnknownParameter, name)
	}
	return nil
}
