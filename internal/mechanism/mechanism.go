package mechanism

// Mechanism is a model bound to a set of compartments.
//
// Current accumulates, for every owned node, the outward membrane current
// (nA) evaluated at v and its derivative with respect to voltage (µS).
// Injected current is reported as negative outward current. Advance moves
// the internal state forward by dt using voltages v; it is called only
// after the voltage solve for the step succeeded.
type Mechanism interface {
	Name() string
	Nodes() []int
	Init(v []float64)
	Current(v []float64, t float64, i, g []float64)
	Advance(v []float64, dt float64)
	Get(name string) (float64, error)
	Set(name string, value float64) error
}

// density converts a conductance density in S/cm² on an area in µm² to
// µS. The same factor converts mA/cm² to nA.
const density = 1e-2
