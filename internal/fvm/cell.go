package fvm

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cablesim/internal/cell"
	"github.com/san-kum/cablesim/internal/compartment"
	"github.com/san-kum/cablesim/internal/matrix"
	"github.com/san-kum/cablesim/internal/mechanism"
	"go.uber.org/zap"
)

type Cell struct {
	graph      *compartment.Graph
	matrix     *matrix.Matrix
	mechanisms []mechanism.Mechanism

	voltage     []float64
	next        []float64
	current     []float64
	conductance []float64

	time        float64
	steps       int
	initialized bool

	// time is origin + run*dt since dt last changed.
	origin float64
	run    int
	dt     float64

	logger *zap.Logger
}

type Option func(*Cell)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cell) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New discretises c at its current resolution and instantiates its
// mechanisms from reg. Later changes to c do not affect the returned Cell.
func New(c *cell.Cell, reg *mechanism.Registry, opts ...Option) (*Cell, error) {
	graph, err := compartment.Discretize(c)
	if err != nil {
		return nil, err
	}
	mat, err := matrix.New(graph.Parent)
	if err != nil {
		return nil, err
	}

	n := graph.Size()
	model := &Cell{
		graph:       graph,
		matrix:      mat,
		voltage:     make([]float64, n),
		next:        make([]float64, n),
		current:     make([]float64, n),
		conductance: make([]float64, n),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(model)
	}

	for si, seg := range c.Segments() {
		params := seg.Mechanisms()
		if len(params) == 0 {
			return nil, fmt.Errorf("%w: %s segment %d has no membrane channel", cell.ErrUnknownMechanism, seg.Kind, si)
		}
		patches := graph.Patches[si]
		nodes := make([]int, len(patches))
		areas := make([]float64, len(patches))
		for k, p := range patches {
			nodes[k] = p.Node
			areas[k] = p.Area
		}
		for _, p := range params {
			m, err := reg.New(p, nodes, areas)
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", si, err)
			}
			model.mechanisms = append(model.mechanisms, m)
		}
	}

	for _, stim := range c.Stimuli() {
		idx, err := compartment.FindCompartmentIndex(stim.Location, graph)
		if err != nil {
			return nil, err
		}
		m, err := reg.NewClamp(stim, idx)
		if err != nil {
			return nil, err
		}
		model.mechanisms = append(model.mechanisms, m)
	}

	model.logger.Debug("cell discretised",
		zap.Int("segments", graph.NumSegments()),
		zap.Int("compartments", n),
		zap.Int("mechanisms", len(model.mechanisms)),
	)
	return model, nil
}

// SetVoltage sets every compartment to v mV.
func (c *Cell) SetVoltage(v float64) {
	for i := range c.voltage {
		c.voltage[i] = v
	}
}

// SetVoltages copies per-compartment voltages.
func (c *Cell) SetVoltages(v []float64) error {
	if len(v) != len(c.voltage) {
		return fmt.Errorf("fvm: %d voltages for %d compartments", len(v), len(c.voltage))
	}
	copy(c.voltage, v)
	return nil
}

// Initialize puts every mechanism in the steady state of the current
// voltages. It must be called once, after the initial voltages are set and
// before the first Advance.
func (c *Cell) Initialize() error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	for _, m := range c.mechanisms {
		m.Init(c.voltage)
	}
	c.initialized = true
	return nil
}

// Advance integrates the cell over one step of dt ms. On error no state
// changes.
func (c *Cell) Advance(dt float64) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidStep, dt)
	}

	origin, run := c.origin, c.run
	if dt != c.dt {
		origin, run = c.time, 0
	}

	for i := range c.current {
		c.current[i] = 0
		c.conductance[i] = 0
	}
	for _, m := range c.mechanisms {
		m.Current(c.voltage, c.time, c.current, c.conductance)
	}

	c.matrix.Assemble(matrix.Coefficients{
		Dt:              dt,
		Capacitance:     c.graph.Capacitance,
		FaceConductance: c.graph.FaceConductance,
		Voltage:         c.voltage,
		Current:         c.current,
		Conductance:     c.conductance,
	})
	if err := c.matrix.Solve(c.next); err != nil {
		stepErr := &StepError{Step: c.steps, Time: c.time, Index: -1, Wrapped: err}
		var se *matrix.SingularError
		if errors.As(err, &se) {
			stepErr.Index = se.Index
		}
		c.logger.Error("advance failed",
			zap.Int("step", c.steps),
			zap.Float64("t", c.time),
			zap.Int("compartment", stepErr.Index),
			zap.Error(err),
		)
		return stepErr
	}

	for _, m := range c.mechanisms {
		m.Advance(c.next, dt)
	}
	c.voltage, c.next = c.next, c.voltage
	c.origin, c.run, c.dt = origin, run+1, dt
	c.time = origin + float64(c.run)*dt
	c.steps++
	return nil
}

// Voltage returns a copy of the compartment voltages.
func (c *Cell) Voltage() []float64 {
	out := make([]float64, len(c.voltage))
	copy(out, c.voltage)
	return out
}

// CopyVoltage copies the compartment voltages into dst, which must have
// Size entries.
func (c *Cell) CopyVoltage(dst []float64) { copy(dst, c.voltage) }

func (c *Cell) VoltageAt(i int) float64 { return c.voltage[i] }

func (c *Cell) Time() float64 { return c.time }

func (c *Cell) Steps() int { return c.steps }

func (c *Cell) Size() int { return len(c.voltage) }

func (c *Cell) Graph() *compartment.Graph { return c.graph }

func (c *Cell) Mechanisms() []mechanism.Mechanism { return c.mechanisms }

// Locate resolves a location to a compartment index of this discretisation.
func (c *Cell) Locate(loc cell.Location) (int, error) {
	return compartment.FindCompartmentIndex(loc, c.graph)
}
