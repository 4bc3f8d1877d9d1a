package format

import "strings"

// Placeholder is shown in place of a missing or invalid value.
const Placeholder = "—"

// TruncateWithEllipsis truncates a string to maxWidth runes, ending with a
// single "…" when the string exceeds the limit.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return string(runes[:1])
	}
	return string(runes[:maxWidth-1]) + "…"
}

// SingleLine collapses runs of whitespace, including newlines, into single
// spaces so free-form text fits in one table row.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
