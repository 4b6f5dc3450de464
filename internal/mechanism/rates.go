package mechanism

import "math"

// Rates holds the steady-state values and time constants (ms) of the hh
// gates at one voltage.
type Rates struct {
	MInf, MTau float64
	HInf, HTau float64
	NInf, NTau float64
}

// RateTable provides precomputed hh rates for fast lookup.
// Uses linear interpolation for voltages between table entries and direct
// evaluation outside the table range.
type RateTable struct {
	vmin, vmax float64
	step       float64
	q10        float64
	entries    []Rates
}

// NewRateTable tabulates rates on [vmin, vmax] mV at the given spacing for
// a temperature of celsius.
func NewRateTable(vmin, vmax, step, celsius float64) *RateTable {
	q10 := math.Pow(3, (celsius-6.3)/10)
	n := int(math.Round((vmax-vmin)/step)) + 1
	t := &RateTable{
		vmin:    vmin,
		vmax:    vmin + float64(n-1)*step,
		step:    step,
		q10:     q10,
		entries: make([]Rates, n),
	}
	for i := range t.entries {
		t.entries[i] = hhRates(vmin+float64(i)*step, q10)
	}
	return t
}

// At returns interpolated rates at v.
func (t *RateTable) At(v float64) Rates {
	if v < t.vmin || v >= t.vmax || math.IsNaN(v) {
		return hhRates(v, t.q10)
	}
	idx := (v - t.vmin) / t.step
	i := int(idx)
	frac := idx - float64(i)
	a, b := t.entries[i], t.entries[i+1]
	return Rates{
		MInf: lerp(a.MInf, b.MInf, frac),
		MTau: lerp(a.MTau, b.MTau, frac),
		HInf: lerp(a.HInf, b.HInf, frac),
		HTau: lerp(a.HTau, b.HTau, frac),
		NInf: lerp(a.NInf, b.NInf, frac),
		NTau: lerp(a.NTau, b.NTau, frac),
	}
}

// Exact evaluates the rate functions directly.
func (t *RateTable) Exact(v float64) Rates {
	return hhRates(v, t.q10)
}

func (t *RateTable) Len() int { return len(t.entries) }

func lerp(a, b, frac float64) float64 {
	return a*(1-frac) + b*frac
}

func hhRates(v, q10 float64) Rates {
	var r Rates

	alpha := 0.1 * vtrap(-(v + 40), 10)
	beta := 4 * math.Exp(-(v+65)/18)
	sum := alpha + beta
	r.MTau = 1 / (q10 * sum)
	r.MInf = alpha / sum

	alpha = 0.07 * math.Exp(-(v+65)/20)
	beta = 1 / (math.Exp(-(v+35)/10) + 1)
	sum = alpha + beta
	r.HTau = 1 / (q10 * sum)
	r.HInf = alpha / sum

	alpha = 0.01 * vtrap(-(v + 55), 10)
	beta = 0.125 * math.Exp(-(v+65)/80)
	sum = alpha + beta
	r.NTau = 1 / (q10 * sum)
	r.NInf = alpha / sum

	return r
}

// vtrap computes x/(exp(x/y)-1) without the singularity at x=0.
func vtrap(x, y float64) float64 {
	if math.Abs(x/y) < 1e-6 {
		return y * (1 - x/y/2)
	}
	return x / (math.Exp(x/y) - 1)
}
