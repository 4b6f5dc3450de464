package spike

import "iter"

// Event is one detected spike.
type Event struct {
	Time  float64 `json:"time"`
	Probe string  `json:"probe"`
}

// Find returns the times of upward threshold crossings in a trace sampled
// every dt ms starting at t=0. A crossing is a sample at or above the
// threshold whose predecessor is below it; its time is linearly
// interpolated between the two samples.
func Find(trace []float64, threshold, dt float64) []float64 {
	var times []float64
	for t := range Seq(trace, threshold, dt) {
		times = append(times, t)
	}
	return times
}

// Seq yields the crossings of Find lazily. The sequence may be ranged
// over more than once.
func Seq(trace []float64, threshold, dt float64) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for i := 1; i < len(trace); i++ {
			prev, cur := trace[i-1], trace[i]
			if !(prev < threshold && cur >= threshold) {
				continue
			}
			frac := (threshold - prev) / (cur - prev)
			if !yield(dt * (float64(i-1) + frac)) {
				return
			}
		}
	}
}

// Events tags the crossings of a trace with its probe name.
func Events(probe string, trace []float64, threshold, dt float64) []Event {
	var events []Event
	for t := range Seq(trace, threshold, dt) {
		events = append(events, Event{Time: t, Probe: probe})
	}
	return events
}
