package widgets

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// GaugeConfig controls a horizontal bar gauge.
type GaugeConfig struct {
	Width   int
	Percent float64
	Label   string
	// ShowPercent appends "XX%" after the bar.
	ShowPercent bool
	// ThresholdWarning and ThresholdDanger switch the bar to yellow and red.
	ThresholdWarning float64
	ThresholdDanger  float64
}

// DefaultGaugeConfig returns a GaugeConfig with sensible defaults.
func DefaultGaugeConfig() GaugeConfig {
	return GaugeConfig{
		Width:            20,
		ShowPercent:      true,
		ThresholdWarning: 70,
		ThresholdDanger:  90,
	}
}

func gaugeColor(percent, warning, danger float64) lipgloss.Color {
	switch {
	case percent >= danger:
		return lipgloss.Color("#EF4444")
	case percent >= warning:
		return lipgloss.Color("#EAB308")
	default:
		return lipgloss.Color("#22C55E")
	}
}

// RenderGauge renders [Label] [████░░░░] [XX%].
func RenderGauge(cfg GaugeConfig) string {
	percent := math.Max(0, math.Min(100, cfg.Percent))

	width := cfg.Width
	if width <= 0 {
		width = 20
	}
	filled := int(math.Round(percent / 100 * float64(width)))

	style := lipgloss.NewStyle().Foreground(gaugeColor(percent, cfg.ThresholdWarning, cfg.ThresholdDanger))
	bar := style.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)

	var sb strings.Builder
	if cfg.Label != "" {
		sb.WriteString(cfg.Label)
		sb.WriteString(" ")
	}
	sb.WriteString(bar)
	if cfg.ShowPercent {
		fmt.Fprintf(&sb, " %3.0f%%", percent)
	}
	return sb.String()
}

// LatencyPercent returns fetch latency as a share of the poll interval.
// A fetch that takes longer than the interval overlaps the next tick.
func LatencyPercent(latency, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return float64(latency) / float64(interval) * 100
}

// RenderLatencyGauge shows how much of the poll interval the last fetch used,
// followed by the latency in milliseconds.
func RenderLatencyGauge(latency, interval time.Duration, width int) string {
	cfg := DefaultGaugeConfig()
	cfg.Width = width
	cfg.ShowPercent = false
	cfg.Percent = LatencyPercent(latency, interval)
	cfg.ThresholdWarning = 50
	cfg.ThresholdDanger = 90
	return RenderGauge(cfg) + fmt.Sprintf(" %dms", latency.Milliseconds())
}
