// Package viz renders trajectories as terminal plots.
package viz

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	Value = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ccff"))
)

// PlotSeries draws one time series with a caption.
func PlotSeries(w io.Writer, caption string, data []float64) {
	if len(data) < 2 {
		fmt.Fprintln(w, Subtle.Render("not enough samples to plot"))
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(w, graph)
	fmt.Fprintln(w)
}

// PlotTrajectory draws each state component against its sample index. States
// are row-per-time, as loaded from a stored run.
func PlotTrajectory(w io.Writer, title string, states [][]float64) {
	if len(states) == 0 {
		fmt.Fprintln(w, Subtle.Render("no data to plot"))
		return
	}
	fmt.Fprintln(w, Title.Render(title))
	fmt.Fprintln(w)

	for j := range states[0] {
		data := make([]float64, len(states))
		for i := range states {
			if j < len(states[i]) {
				data[i] = states[i][j]
			}
		}
		PlotSeries(w, fmt.Sprintf("x%d vs time", j), data)
	}
}
