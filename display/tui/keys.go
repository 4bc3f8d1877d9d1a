package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyCategory groups keybindings by function.
type KeyCategory string

const (
	CategoryView   KeyCategory = "view"
	CategoryData   KeyCategory = "data"
	CategorySystem KeyCategory = "system"
)

// keyMap defines all key bindings for the dashboard.
// It implements the help.KeyMap interface for bubbles/help integration.
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Legend  key.Binding
	Help    key.Binding
}

// ShortHelp returns the compact set of keybindings shown by default in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns the expanded keybinding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Legend},
		{k.Help, k.Quit},
	}
}

// keys holds the default key bindings used by the application.
var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "poll now")),
	Legend:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "toggle sparkline legend")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// KeyEntry is one registered keybinding with its category.
type KeyEntry struct {
	Binding  key.Binding
	Category KeyCategory
}

// KeyBindings returns every dashboard binding, in help order.
func KeyBindings() []KeyEntry {
	return []KeyEntry{
		{Binding: keys.Refresh, Category: CategoryData},
		{Binding: keys.Legend, Category: CategoryView},
		{Binding: keys.Help, Category: CategorySystem},
		{Binding: keys.Quit, Category: CategorySystem},
	}
}

// DuplicateKeys reports keys assigned to more than one binding.
func DuplicateKeys(entries []KeyEntry) []string {
	seen := make(map[string]string)
	var conflicts []string
	for _, e := range entries {
		for _, k := range e.Binding.Keys() {
			if existing, ok := seen[k]; ok {
				conflicts = append(conflicts, fmt.Sprintf(
					"duplicate key %q: %s vs %s", k, existing, e.Binding.Help().Desc))
				continue
			}
			seen[k] = e.Binding.Help().Desc
		}
	}
	return conflicts
}

// FormatKeyTable renders the bindings as an aligned plain-text table.
func FormatKeyTable(entries []KeyEntry) string {
	var sb strings.Builder
	sb.WriteString("Keybindings:\n")
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	for _, e := range entries {
		keysStr := strings.Join(e.Binding.Keys(), ", ")
		sb.WriteString(fmt.Sprintf("  %-20s  %-8s %s\n", keysStr, e.Category, e.Binding.Help().Desc))
	}
	return sb.String()
}
