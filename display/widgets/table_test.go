package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTable_Basic(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Columns = []Column{{Title: "Time"}, {Title: "Level"}, {Title: "Message"}}
	cfg.Rows = [][]string{
		{"12:00:01", "WARN", "acl drop"},
		{"12:00:02", "INFO", "flow allowed"},
	}

	result := RenderTable(cfg)
	for _, want := range []string{"acl drop", "flow allowed", "WARN"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected table to contain %q", want)
		}
	}

	// Header + rule + 2 rows.
	if lines := strings.Split(result, "\n"); len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
}

func TestRenderTable_EmptyText(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Columns = []Column{{Title: "Time"}, {Title: "Message"}}
	cfg.EmptyText = "No events."

	result := RenderTable(cfg)
	lines := strings.Split(result, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, rule and empty row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[2], "No events.") {
		t.Errorf("expected empty-state row, got %q", lines[2])
	}
}

func TestRenderTable_EmptyWithoutText(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Columns = []Column{{Title: "Name"}, {Title: "Value"}}

	if lines := strings.Split(RenderTable(cfg), "\n"); len(lines) != 2 {
		t.Errorf("expected header and rule only, got %d lines", len(lines))
	}
}

func TestRenderTable_NoColumns(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Rows = [][]string{{"a", "b"}}

	if result := RenderTable(cfg); result != "" {
		t.Errorf("expected empty string for no columns, got %q", result)
	}
}

func TestRenderTable_NoHeader(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.ShowHeader = false
	cfg.Columns = []Column{{Title: "Name"}, {Title: "Value"}}
	cfg.Rows = [][]string{{"foo", "bar"}, {"baz", "qux"}}

	result := RenderTable(cfg)
	if lines := strings.Split(result, "\n"); len(lines) != 2 {
		t.Errorf("expected 2 lines (data only), got %d", len(lines))
	}
	if strings.Contains(result, "─") {
		t.Error("expected no rule when ShowHeader is false")
	}
}

func TestRenderTable_FlexColumnFillsWidth(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.ShowHeader = false
	cfg.Columns = []Column{
		{Title: "Level", Width: 5},
		{Title: "Message", Flex: true},
	}
	cfg.Rows = [][]string{{"INFO", "short"}}
	cfg.MaxWidth = 30

	widths := columnWidths(cfg)
	if widths[0] != 5 || widths[1] != 23 {
		t.Errorf("expected [5 23], got %v", widths)
	}

	cfg.Rows = [][]string{{"INFO", strings.Repeat("x", 100)}}
	widths = columnWidths(cfg)
	if widths[1] != 23 {
		t.Errorf("expected flex column to shrink to 23, got %d", widths[1])
	}
	if !strings.Contains(RenderTable(cfg), "…") {
		t.Error("expected truncated flex cell")
	}
}

func TestRenderTable_ProportionalShrink(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Columns = []Column{{Title: "A", Width: 20}, {Title: "B", Width: 20}}
	cfg.MaxWidth = 22

	widths := columnWidths(cfg)
	if widths[0]+widths[1]+2 > 22 {
		t.Errorf("expected widths to fit 22, got %v", widths)
	}
}

func TestRenderTable_CellStyle(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.ShowHeader = false
	cfg.Columns = []Column{{Title: "Level"}, {Title: "Message"}}
	cfg.Rows = [][]string{{"ERROR", "boom"}, {"INFO", "ok"}}

	var seen [][2]int
	cfg.CellStyle = func(row, col int) (lipgloss.Style, bool) {
		seen = append(seen, [2]int{row, col})
		return lipgloss.NewStyle(), col == 0
	}

	RenderTable(cfg)
	if len(seen) != 4 {
		t.Errorf("expected CellStyle called for every cell, got %d calls", len(seen))
	}
}

func TestRenderTable_Alignment(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.ShowHeader = false
	cfg.Columns = []Column{{Width: 8, Align: AlignRight}, {Width: 10, Align: AlignCenter}}
	cfg.Rows = [][]string{{"42", "hi"}}

	result := RenderTable(cfg)
	if !strings.Contains(result, "      42") {
		t.Errorf("expected right-aligned '42', got %q", result)
	}
	if !strings.Contains(result, "    hi    ") {
		t.Errorf("expected centered 'hi', got %q", result)
	}
}

func TestRenderTable_UnevenRows(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Columns = []Column{{Title: "A"}, {Title: "B"}, {Title: "C"}}
	cfg.Rows = [][]string{{"only one"}}

	if !strings.Contains(RenderTable(cfg), "only one") {
		t.Error("expected table to contain 'only one'")
	}
}

func TestPadOrTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		align Alignment
		want  string
	}{
		{"hi", 6, AlignLeft, "hi    "},
		{"hi", 6, AlignRight, "    hi"},
		{"hi", 6, AlignCenter, "  hi  "},
		{"Hello World", 5, AlignLeft, "Hell…"},
		{"Hello", 1, AlignLeft, "H"},
		{"Hello", 0, AlignLeft, ""},
	}
	for _, tt := range tests {
		if got := padOrTruncate(tt.in, tt.width, tt.align); got != tt.want {
			t.Errorf("padOrTruncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestColumnWidths_Auto(t *testing.T) {
	cfg := TableConfig{
		Columns: []Column{{Title: "Short"}, {Title: "A", Width: 15}, {Title: "LongerHeader"}},
		Rows: [][]string{
			{"VeryLongContent", "x", "y"},
			{"a", "b", "LongestCellValue"},
		},
	}

	widths := columnWidths(cfg)
	if widths[0] != 15 || widths[1] != 15 || widths[2] != 16 {
		t.Errorf("expected [15 15 16], got %v", widths)
	}
}
