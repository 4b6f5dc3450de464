package report

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/cablesim/internal/validation"
)

// ErrorPlot draws log10 of the max relative error of one probe against
// resolution. Bad comparisons are left out.
func ErrorPlot(outcomes []validation.Outcome, probe string) string {
	data := make([]float64, 0, len(outcomes))
	first, last := 0, 0
	for _, o := range outcomes {
		rel := o.Comparisons[probe].MaxRelativeError()
		if rel <= 0 || math.IsInf(rel, 0) || math.IsNaN(rel) {
			continue
		}
		if len(data) == 0 {
			first = o.Compartments
		}
		last = o.Compartments
		data = append(data, math.Log10(rel))
	}
	if len(data) < 2 {
		return Subtle.Render(fmt.Sprintf("%s: not enough comparable resolutions to plot", probe))
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("%s: log10 max relative error, nseg %d to %d", probe, first, last)),
	)
}

// TracePlot draws a voltage trace resampled to the plot width.
func TracePlot(trace []float64, caption string) string {
	if len(trace) == 0 {
		return Subtle.Render("empty trace")
	}
	return asciigraph.Plot(trace,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}
