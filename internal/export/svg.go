package export

import (
	"fmt"
	"math"
	"strings"
)

// Series is one voltage trace sampled at the shared times.
type Series struct {
	Name   string
	Values []float64
}

var palette = []string{"#00ff00", "#00bfff", "#ff8c00", "#ff00ff", "#ffff00", "#ff4040"}

// TracesToSVG draws every series against times on shared axes. It returns
// "" when there are fewer than two samples or no finite values.
func TracesToSVG(times []float64, series []Series, width, height int) string {
	if len(times) < 2 || len(series) == 0 {
		return ""
	}

	// Find bounds
	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			minY = min(minY, v)
			maxY = max(maxY, v)
		}
	}
	if minY > maxY {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, s := range series {
		color := palette[i%len(palette)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" data-name="%s" d="`, color, s.Name)

		pen := false
		for j, v := range s.Values {
			if j >= len(times) {
				break
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				pen = false
				continue
			}
			x := (times[j] - minX) / rangeX * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)

			if !pen {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
				pen = true
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*(i+1), color, s.Name)
	}

	fmt.Fprintf(&sb, `<text x="%d" y="%d" fill="#808080" font-family="monospace" font-size="10" text-anchor="end">%.4g to %.4g ms, %.1f to %.1f mV</text>
`, width-8, height-8, minX, maxX, minY, maxY)
	sb.WriteString("</svg>")
	return sb.String()
}
