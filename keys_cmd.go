package main

import (
	"fmt"
	"io"
	"strings"

	"gitlab.com/tinyland/lab/sdn-pulse/display/tui"
)

// keyJSON is the machine-readable form of one binding.
type keyJSON struct {
	Keys     []string `json:"keys"`
	Help     string   `json:"help"`
	Category string   `json:"category"`
}

// runKeysCommand prints the dashboard keybindings, optionally filtered by
// category, as a table or as JSON. It returns the process exit code.
func runKeysCommand(w io.Writer, category, format string) int {
	entries := tui.KeyBindings()
	if category != "" {
		entries = filterByCategory(entries, tui.KeyCategory(category))
		if len(entries) == 0 {
			fmt.Fprintf(w, "no bindings found for category %q\n", category)
			return 1
		}
	}

	switch format {
	case "json":
		out := make([]keyJSON, len(entries))
		for i, e := range entries {
			out[i] = keyJSON{
				Keys:     e.Binding.Keys(),
				Help:     e.Binding.Help().Desc,
				Category: string(e.Category),
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(w, "encode keybindings: %v\n", err)
			return 1
		}
		fmt.Fprintln(w, string(data))
	default: // "table"
		fmt.Fprint(w, tui.FormatKeyTable(entries))
	}
	return 0
}

// filterByCategory keeps the entries of one category.
func filterByCategory(entries []tui.KeyEntry, category tui.KeyCategory) []tui.KeyEntry {
	var result []tui.KeyEntry
	for _, e := range entries {
		if strings.EqualFold(string(e.Category), string(category)) {
			result = append(result, e)
		}
	}
	return result
}
