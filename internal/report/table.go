package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/cablesim/internal/sim"
	"github.com/san-kum/cablesim/internal/validation"
)

// ConvergenceTable lists the max relative spike time error of every probe
// per resolution, in percent.
func ConvergenceTable(outcomes []validation.Outcome) string {
	if len(outcomes) == 0 {
		return Subtle.Render("no outcomes")
	}
	probes := probeNames(outcomes[0])

	var b strings.Builder
	header := fmt.Sprintf("%6s", "nseg")
	for _, p := range probes {
		header += fmt.Sprintf("  %12s", p)
	}
	header += fmt.Sprintf("  %s", "worst")
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n")

	for _, o := range outcomes {
		b.WriteString(fmt.Sprintf("%6d", o.Compartments))
		for _, p := range probes {
			b.WriteString("  ")
			b.WriteString(MetricValue.Render(fmt.Sprintf("%12s", percent(o.Comparisons[p].MaxRelativeError()))))
		}
		name, cmp := o.Worst()
		b.WriteString("  ")
		b.WriteString(MetricLabel.Render(fmt.Sprintf("%s %s", name, cmp)))
		b.WriteString("\n")
	}
	return b.String()
}

// RunSummary describes one run: spikes and metrics per probe.
func RunSummary(model string, res *sim.Result) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("%s  %d compartments  %d steps", model, res.Compartments, res.StepsTaken)))
	b.WriteString("\n")

	names := make([]string, 0, len(res.Spikes))
	for name := range res.Spikes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spikes := res.Spikes[name]
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			MetricLabel.Render(fmt.Sprintf("%-8s", name)),
			MetricValue.Render(fmt.Sprintf("%3d spikes", len(spikes))),
			Subtle.Render(formatTimes(spikes, 8)),
		))
	}

	metrics := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		metrics = append(metrics, name)
	}
	sort.Strings(metrics)
	for _, name := range metrics {
		b.WriteString(fmt.Sprintf("%s %s\n",
			MetricLabel.Render(fmt.Sprintf("%-14s", name)),
			MetricValue.Render(fmt.Sprintf("%.4f", res.Metrics[name])),
		))
	}
	return b.String()
}

func percent(rel float64) string {
	if math.IsInf(rel, 1) {
		return "bad"
	}
	return fmt.Sprintf("%.4f%%", rel*100)
}

func formatTimes(times []float64, limit int) string {
	parts := make([]string, 0, limit+1)
	for i, t := range times {
		if i == limit {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, fmt.Sprintf("%.3f", t))
	}
	return strings.Join(parts, " ")
}

func probeNames(o validation.Outcome) []string {
	names := make([]string, 0, len(o.Comparisons))
	for name := range o.Comparisons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
