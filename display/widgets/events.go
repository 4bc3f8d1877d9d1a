package widgets

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/internal/format"
)

const (
	// MaxEventRows is the number of events shown in the table.
	MaxEventRows = 30

	// NoEventsText is the single row shown when there are no events.
	NoEventsText = "No events."

	defaultLevel = "INFO"
)

// EventRow is one display-ready row of the events table.
type EventRow struct {
	Time    string
	Level   string
	Message string
	Extra   string
}

// BuildEventRows converts at most max events (MaxEventRows when max <= 0)
// into display rows, preserving feed order. loc controls timestamp display;
// nil means time.Local.
func BuildEventRows(events []collectors.Event, max int, loc *time.Location) []EventRow {
	if max <= 0 {
		max = MaxEventRows
	}
	if len(events) > max {
		events = events[:max]
	}

	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		level := strings.ToUpper(strings.TrimSpace(e.Level))
		if level == "" {
			level = defaultLevel
		}
		rows = append(rows, EventRow{
			Time:    format.FormatTimestamp(e.TS, loc),
			Level:   level,
			Message: format.SingleLine(e.Msg),
			Extra:   CompactExtra(e.Extra),
		})
	}
	return rows
}

// CompactExtra renders an event's structured payload as compact JSON.
// Absent, null, and falsy scalars render as the empty string.
func CompactExtra(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", "0", `""`:
		return ""
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return format.SingleLine(string(trimmed))
	}
	return buf.String()
}

// levelColors maps event levels to their foreground colour.
var levelColors = map[string]lipgloss.Color{
	"DEBUG":    lipgloss.Color("#6B7280"),
	"INFO":     lipgloss.Color("#3B82F6"),
	"WARN":     lipgloss.Color("#EAB308"),
	"WARNING":  lipgloss.Color("#EAB308"),
	"ERROR":    lipgloss.Color("#EF4444"),
	"CRITICAL": lipgloss.Color("#EF4444"),
	"ALERT":    lipgloss.Color("#EF4444"),
}

// EventsTableConfig controls RenderEvents.
type EventsTableConfig struct {
	Width      int
	MaxRows    int
	Location   *time.Location
	HeaderText lipgloss.Color
	Muted      lipgloss.Color
}

// RenderEvents renders the recent-events table. An empty list renders a
// single "No events." row.
func RenderEvents(events []collectors.Event, cfg EventsTableConfig) string {
	rows := BuildEventRows(events, cfg.MaxRows, cfg.Location)

	tc := DefaultTableConfig()
	tc.MaxWidth = cfg.Width
	tc.EmptyText = NoEventsText
	tc.Columns = []Column{
		{Title: "Time", Width: len(format.DisplayLayout)},
		{Title: "Level", Width: 8},
		{Title: "Message", Flex: true},
		{Title: "Extra", Width: extraWidth(cfg.Width)},
	}
	if cfg.HeaderText != "" {
		tc.HeaderStyle = tc.HeaderStyle.Foreground(cfg.HeaderText)
	}
	if cfg.Muted != "" {
		tc.EmptyStyle = lipgloss.NewStyle().Foreground(cfg.Muted)
	}

	tc.Rows = make([][]string, len(rows))
	for i, r := range rows {
		tc.Rows[i] = []string{r.Time, r.Level, r.Message, r.Extra}
	}

	muted := lipgloss.NewStyle()
	if cfg.Muted != "" {
		muted = muted.Foreground(cfg.Muted)
	}
	tc.CellStyle = func(row, col int) (lipgloss.Style, bool) {
		switch col {
		case 1:
			c, ok := levelColors[rows[row].Level]
			if !ok {
				return lipgloss.Style{}, false
			}
			return lipgloss.NewStyle().Foreground(c).Bold(true), true
		case 3:
			return muted, true
		}
		return lipgloss.Style{}, false
	}

	return RenderTable(tc)
}

// extraWidth gives the extra column roughly a third of wide tables.
func extraWidth(total int) int {
	switch {
	case total <= 0:
		return 32
	case total < 80:
		return 12
	default:
		return total / 3
	}
}
