package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/sdn-pulse/chart"
	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

// sparkBlocks contains 8 unicode block characters for sparkline rendering,
// ordered from lowest to highest.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig controls the appearance of a sparkline.
type SparklineConfig struct {
	// Data points to render (most recent last).
	Data []float64
	// Width is the number of characters to render. If 0, uses len(Data).
	Width int
	// Min and Max fix the scale. Equal values auto-scale to the data.
	Min float64
	Max float64
	// Label is optional text shown before the sparkline.
	Label string
	Color lipgloss.Color
}

// RenderSparkline renders a unicode sparkline from the given configuration.
func RenderSparkline(cfg SparklineConfig) string {
	if len(cfg.Data) == 0 {
		return ""
	}

	data := cfg.Data
	width := cfg.Width
	if width <= 0 {
		width = len(data)
	}
	if width < len(data) {
		data = data[len(data)-width:]
	}

	lo, hi := cfg.Min, cfg.Max
	if lo == hi {
		lo, hi = data[0], data[0]
		for _, v := range data {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	runes := make([]rune, 0, width)
	for _, v := range data {
		if lo == hi {
			runes = append(runes, sparkBlocks[len(sparkBlocks)/2])
			continue
		}
		n := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
		runes = append(runes, sparkBlocks[int(n*float64(len(sparkBlocks)-1))])
	}

	out := string(runes)
	if width > len(data) {
		out = strings.Repeat(" ", width-len(data)) + out
	}
	if cfg.Color != "" {
		out = lipgloss.NewStyle().Foreground(cfg.Color).Render(out)
	}
	if cfg.Label != "" {
		out = cfg.Label + " " + out
	}
	return out
}

// SeriesColors maps each series to the legend colour matching the chart.
var SeriesColors = map[series.Kind]lipgloss.Color{
	series.Flows:   lipgloss.Color("#4AA3FF"),
	series.ACL:     lipgloss.Color("#FF5D5D"),
	series.DDoS:    lipgloss.Color("#FFCC66"),
	series.Allowed: lipgloss.Color("#7AFFB4"),
}

// RenderLegend renders one swatch per series with its latest value. When
// sparkWidth > 0 each entry also carries a sparkline of the recent window,
// one entry per line.
func RenderLegend(buf series.Reader, sparkWidth int) string {
	n := buf.Len()
	entries := make([]string, 0, len(series.Kinds))
	for _, k := range series.Kinds {
		c := SeriesColors[k]
		swatch := lipgloss.NewStyle().Foreground(c).Render("■")

		latest := series.Placeholder
		if n > 0 {
			latest = chart.FormatValue(buf.Value(k, n-1))
		}
		entry := swatch + " " + k.Title() + " " + lipgloss.NewStyle().Bold(true).Render(latest)

		if sparkWidth > 0 && n > 0 {
			vals := make([]float64, n)
			for i := range vals {
				vals[i] = buf.Value(k, i)
			}
			entry = RenderSparkline(SparklineConfig{Data: vals, Width: sparkWidth, Color: c}) + " " + entry
		}
		entries = append(entries, entry)
	}

	if sparkWidth > 0 {
		return strings.Join(entries, "\n")
	}
	return strings.Join(entries, "   ")
}
