package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alignment controls text alignment within a table column.
type Alignment int

const (
	// AlignLeft aligns text to the left (default).
	AlignLeft Alignment = iota
	// AlignRight aligns text to the right.
	AlignRight
	// AlignCenter centers text within the column.
	AlignCenter
)

// Column defines a single table column.
type Column struct {
	// Title is the header text.
	Title string
	// Width is the fixed character width. If 0, it is sized to content.
	Width int
	// Align controls text alignment within the column.
	Align Alignment
	// Flex marks the column that absorbs leftover width when MaxWidth is set.
	// Only the first flex column is used.
	Flex bool
}

// TableConfig holds the configuration for rendering a table.
type TableConfig struct {
	Columns []Column
	// Rows is the table data. Cells must be plain text; styling is applied
	// after padding via CellStyle.
	Rows [][]string
	// MaxWidth is the total width budget. Zero means unbounded.
	MaxWidth int
	// ShowHeader controls whether the header row is displayed.
	ShowHeader bool
	// EmptyText is rendered as a single row when Rows is empty.
	EmptyText string

	HeaderStyle lipgloss.Style
	RowStyle    lipgloss.Style
	EmptyStyle  lipgloss.Style
	// CellStyle, when set, styles individual cells. ok=false falls back to
	// RowStyle.
	CellStyle func(row, col int) (style lipgloss.Style, ok bool)

	// Separator is the column separator string (default: "  ").
	Separator string
}

// DefaultTableConfig returns a TableConfig with sensible defaults.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		ShowHeader:  true,
		Separator:   "  ",
		HeaderStyle: lipgloss.NewStyle().Bold(true),
		RowStyle:    lipgloss.NewStyle(),
		EmptyStyle:  lipgloss.NewStyle().Faint(true),
	}
}

// RenderTable renders a formatted text table from the given configuration.
func RenderTable(cfg TableConfig) string {
	if len(cfg.Columns) == 0 {
		return ""
	}
	if cfg.Separator == "" {
		cfg.Separator = "  "
	}

	widths := columnWidths(cfg)
	total := (len(widths) - 1) * runeLen(cfg.Separator)
	for _, w := range widths {
		total += w
	}

	var lines []string

	if cfg.ShowHeader {
		cells := make([]string, len(cfg.Columns))
		rules := make([]string, len(cfg.Columns))
		for i, col := range cfg.Columns {
			cells[i] = padOrTruncate(col.Title, widths[i], col.Align)
			rules[i] = strings.Repeat("─", widths[i])
		}
		lines = append(lines,
			cfg.HeaderStyle.Render(strings.Join(cells, cfg.Separator)),
			strings.Join(rules, cfg.Separator),
		)
	}

	if len(cfg.Rows) == 0 {
		if cfg.EmptyText != "" {
			lines = append(lines, cfg.EmptyStyle.Render(padOrTruncate(cfg.EmptyText, total, AlignLeft)))
		}
		return strings.Join(lines, "\n")
	}

	for r, row := range cfg.Rows {
		cells := make([]string, len(cfg.Columns))
		for i, col := range cfg.Columns {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			cell := padOrTruncate(text, widths[i], col.Align)

			style := cfg.RowStyle
			if cfg.CellStyle != nil {
				if s, ok := cfg.CellStyle(r, i); ok {
					style = s
				}
			}
			cells[i] = style.Render(cell)
		}
		lines = append(lines, strings.Join(cells, cfg.Separator))
	}

	return strings.Join(lines, "\n")
}

// padOrTruncate pads or truncates a string to the given width with the specified alignment.
func padOrTruncate(s string, width int, align Alignment) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) > width {
		if width == 1 {
			return string(runes[:1])
		}
		return string(runes[:width-1]) + "…"
	}

	padding := width - len(runes)
	switch align {
	case AlignRight:
		return strings.Repeat(" ", padding) + s
	case AlignCenter:
		left := padding / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", padding-left)
	default:
		return s + strings.Repeat(" ", padding)
	}
}

// columnWidths sizes each column to its fixed width or its widest cell. With
// a MaxWidth, the flex column takes up slack or gives up overflow first;
// remaining overflow is shaved proportionally.
func columnWidths(cfg TableConfig) []int {
	widths := make([]int, len(cfg.Columns))
	flex := -1
	for i, col := range cfg.Columns {
		if col.Flex && flex < 0 {
			flex = i
		}
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		w := runeLen(col.Title)
		for _, row := range cfg.Rows {
			if i < len(row) {
				if l := runeLen(row[i]); l > w {
					w = l
				}
			}
		}
		if w == 0 {
			w = 1
		}
		widths[i] = w
	}

	if cfg.MaxWidth <= 0 {
		return widths
	}

	sep := (len(widths) - 1) * runeLen(cfg.Separator)
	used := sep
	for _, w := range widths {
		used += w
	}

	if flex >= 0 {
		widths[flex] += cfg.MaxWidth - used
		if widths[flex] < 1 {
			widths[flex] = 1
		}
		used = sep
		for _, w := range widths {
			used += w
		}
	}

	if used > cfg.MaxWidth {
		available := cfg.MaxWidth - sep
		if available < len(widths) {
			available = len(widths)
		}
		colTotal := used - sep
		for i, w := range widths {
			widths[i] = w * available / colTotal
			if widths[i] < 1 {
				widths[i] = 1
			}
		}
	}

	return widths
}

func runeLen(s string) int {
	return len([]rune(s))
}
