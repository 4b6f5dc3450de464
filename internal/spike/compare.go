package spike

import (
	"fmt"
	"math"
)

// Comparison summarises the difference between a candidate spike train
// and a baseline. Spikes are paired by index up to the shorter train.
type Comparison struct {
	Pairs int
	// Missing is len(candidate) - len(baseline).
	Missing int

	// Absolute errors in ms over the paired spikes.
	Min  float64
	Max  float64
	Mean float64
	RMS  float64

	maxRelative float64
	bad         bool
}

// Compare pairs candidate and baseline spikes by index.
func Compare(candidate, baseline []float64) Comparison {
	c := Comparison{
		Missing: len(candidate) - len(baseline),
		Pairs:   min(len(candidate), len(baseline)),
	}
	if c.Pairs == 0 {
		c.bad = true
		c.Min, c.Max, c.Mean, c.RMS = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		c.maxRelative = math.Inf(1)
		return c
	}

	c.Min = math.Inf(1)
	var sum, sumSq float64
	for k := 0; k < c.Pairs; k++ {
		diff := math.Abs(candidate[k] - baseline[k])
		c.Min = math.Min(c.Min, diff)
		c.Max = math.Max(c.Max, diff)
		sum += diff
		sumSq += diff * diff

		rel := math.Inf(1)
		if baseline[k] != 0 {
			rel = diff / math.Abs(baseline[k])
		} else if diff == 0 {
			rel = 0
		}
		c.maxRelative = math.Max(c.maxRelative, rel)
	}
	n := float64(c.Pairs)
	c.Mean = sum / n
	c.RMS = math.Sqrt(sumSq / n)
	return c
}

// Bad reports whether either train was empty.
func (c Comparison) Bad() bool { return c.bad }

// MaxRelativeError is the largest |c-b|/|b| over the pairs, or +Inf for a
// bad comparison.
func (c Comparison) MaxRelativeError() float64 { return c.maxRelative }

func (c Comparison) String() string {
	if c.bad {
		return fmt.Sprintf("bad comparison (missing %d)", c.Missing)
	}
	return fmt.Sprintf("pairs=%d missing=%d min=%.4g max=%.4g mean=%.4g rms=%.4g maxrel=%.4g",
		c.Pairs, c.Missing, c.Min, c.Max, c.Mean, c.RMS, c.maxRelative)
}
