package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
)

// KPI is one headline counter.
type KPI struct {
	Title string
	Value string
	Color lipgloss.Color
}

// KPIsFromCounters returns the four headline counters in display order.
// Values are grouped with thousands separators.
func KPIsFromCounters(c collectors.Counters) []KPI {
	return []KPI{
		{Title: "Events", Value: humanize.Comma(c.EventsTotal), Color: lipgloss.Color("#E5E7EB")},
		{Title: "ACL drops", Value: humanize.Comma(c.ACLDropsTotal), Color: lipgloss.Color("#FF5D5D")},
		{Title: "DDoS flags", Value: humanize.Comma(c.DDoSFlagsTotal), Color: lipgloss.Color("#FFCC66")},
		{Title: "Allowed", Value: humanize.Comma(c.AllowedTotal), Color: lipgloss.Color("#7AFFB4")},
	}
}

// RenderKPIs lays the counters out as equal-width boxes across width.
// Boxes stack vertically when the width cannot fit four.
func RenderKPIs(kpis []KPI, width int, border lipgloss.Color, muted lipgloss.Color) string {
	if len(kpis) == 0 {
		return ""
	}

	const minBox = 14
	perRow := len(kpis)
	if width > 0 {
		for perRow > 1 && width/perRow < minBox {
			perRow /= 2
		}
	}

	boxW := minBox
	if width > 0 {
		boxW = width/perRow - 2
		if boxW < 4 {
			boxW = 4
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(boxW).
		Padding(0, 1)
	title := lipgloss.NewStyle().Foreground(muted)

	var rows []string
	for start := 0; start < len(kpis); start += perRow {
		end := start + perRow
		if end > len(kpis) {
			end = len(kpis)
		}
		boxes := make([]string, 0, end-start)
		for _, k := range kpis[start:end] {
			value := lipgloss.NewStyle().Foreground(k.Color).Bold(true).Render(k.Value)
			boxes = append(boxes, box.Render(title.Render(k.Title)+"\n"+value))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return strings.Join(rows, "\n")
}
