package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// LayoutSize represents a responsive breakpoint for terminal width.
type LayoutSize int

const (
	// LayoutCompact is used for terminals narrower than 60 characters.
	LayoutCompact LayoutSize = iota
	// LayoutNormal is used for terminals between 60 and 120 characters wide.
	LayoutNormal
	// LayoutWide is used for terminals wider than 120 characters.
	LayoutWide
)

// DetectLayout returns the appropriate LayoutSize for the given terminal width.
func DetectLayout(width int) LayoutSize {
	switch {
	case width < 60:
		return LayoutCompact
	case width <= 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}

// LayoutConfig holds responsive layout values that adapt to terminal width.
type LayoutConfig struct {
	// GaugeWidth is the character width of the fetch latency gauge.
	GaugeWidth int
	// SparkWidth is the sparkline width in the expanded legend.
	SparkWidth int
	// ShowKPIBoxes renders counters as bordered boxes instead of one line.
	ShowKPIBoxes bool
	// ChartShare is the fraction of the free rows given to the chart.
	ChartShare float64
	// MinChartRows is the smallest chart height in cells.
	MinChartRows int
}

// LayoutForSize returns a LayoutConfig appropriate for the given size.
func LayoutForSize(size LayoutSize) LayoutConfig {
	switch size {
	case LayoutCompact:
		return LayoutConfig{
			GaugeWidth:   10,
			SparkWidth:   12,
			ShowKPIBoxes: false,
			ChartShare:   0.5,
			MinChartRows: 6,
		}
	case LayoutWide:
		return LayoutConfig{
			GaugeWidth:   30,
			SparkWidth:   40,
			ShowKPIBoxes: true,
			ChartShare:   0.6,
			MinChartRows: 10,
		}
	default: // LayoutNormal
		return LayoutConfig{
			GaugeWidth:   20,
			SparkWidth:   24,
			ShowKPIBoxes: true,
			ChartShare:   0.55,
			MinChartRows: 8,
		}
	}
}

// sections is the vertical budget of one frame.
type sections struct {
	// ChartRows is the chart height in cells.
	ChartRows int
	// EventRows is the number of event table rows, excluding the header.
	EventRows int
}

// planSections splits the rows left after the fixed chrome between the chart
// and the events table. The events table always keeps its header and one row.
func planSections(height, fixed int, cfg LayoutConfig) sections {
	avail := height - fixed
	if avail < 0 {
		avail = 0
	}

	chartRows := int(float64(avail) * cfg.ChartShare)
	if chartRows < cfg.MinChartRows {
		chartRows = cfg.MinChartRows
	}
	events := avail - chartRows - 1
	if events < 1 {
		events = 1
	}
	return sections{ChartRows: chartRows, EventRows: events}
}

// overlay draws box over base with its top-left corner at cell (x, y).
// base lines may contain ANSI escapes; they are preserved on either side of
// the box.
func overlay(base []string, box []string, x, y int) []string {
	out := make([]string, len(base))
	copy(out, base)

	for i, line := range box {
		row := y + i
		if row < 0 || row >= len(out) {
			continue
		}
		w := ansi.StringWidth(line)
		left := ansi.Truncate(out[row], x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := ansi.TruncateLeft(out[row], x+w, "")
		out[row] = left + "\x1b[0m" + line + "\x1b[0m" + right
	}
	return out
}

// horizontalRule returns a horizontal line of the given width using box-drawing
// characters.
func horizontalRule(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("─", width)
}

// sectionTitle renders a centered title with horizontal rules on either side.
// Format: "---- Title ----"
func sectionTitle(title string, width int) string {
	if width <= 0 {
		return title
	}

	titleLen := len([]rune(title))
	// 2 spaces around the title text.
	decorLen := titleLen + 2
	if decorLen >= width {
		return title
	}

	remaining := width - decorLen
	leftLen := remaining / 2
	rightLen := remaining - leftLen

	left := strings.Repeat("─", leftLen)
	right := strings.Repeat("─", rightLen)

	return left + " " + title + " " + right
}
