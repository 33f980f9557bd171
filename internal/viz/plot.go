package viz

import (
	"github.com/guptarohit/asciigraph"
)

// Plot renders a static terminal chart of one series.
func Plot(series []float64, caption string) string {
	if len(series) == 0 {
		return "(empty series)"
	}
	return asciigraph.Plot(series,
		asciigraph.Height(15),
		asciigraph.Width(72),
		asciigraph.Caption(caption),
	)
}
