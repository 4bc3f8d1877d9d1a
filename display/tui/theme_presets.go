package tui

import "github.com/charmbracelet/lipgloss"

// ThemePreset defines the colour scheme of the dashboard chrome. Series
// colours are fixed so the legend always matches the chart.
type ThemePreset struct {
	Name        string
	Description string
	// Colors
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Danger     lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	// Layout
	ShowBorders bool
	CompactMode bool
}

// Predefined theme presets.
var (
	// MonitoringTheme is the default dark theme.
	MonitoringTheme = ThemePreset{
		Name:        "monitoring",
		Description: "Dark theme for controller monitoring",
		Primary:     lipgloss.Color("#4AA3FF"),
		Secondary:   lipgloss.Color("#06B6D4"),
		Success:     lipgloss.Color("#22C55E"),
		Warning:     lipgloss.Color("#EAB308"),
		Danger:      lipgloss.Color("#EF4444"),
		Muted:       lipgloss.Color("#6B7280"),
		Background:  lipgloss.Color("#0F141C"),
		ShowBorders: true,
		CompactMode: false,
	}

	// MinimalTheme drops borders and KPI boxes.
	MinimalTheme = ThemePreset{
		Name:        "minimal",
		Description: "Borderless compact theme",
		Primary:     lipgloss.Color("#8B5CF6"),
		Secondary:   lipgloss.Color("#67E8F9"),
		Success:     lipgloss.Color("#4ADE80"),
		Warning:     lipgloss.Color("#FCD34D"),
		Danger:      lipgloss.Color("#F87171"),
		Muted:       lipgloss.Color("#9CA3AF"),
		Background:  lipgloss.Color("#0F172A"),
		ShowBorders: false,
		CompactMode: true,
	}

	// ContrastTheme favours legibility on bright or low-quality displays.
	ContrastTheme = ThemePreset{
		Name:        "contrast",
		Description: "High-contrast theme",
		Primary:     lipgloss.Color("#FFFFFF"),
		Secondary:   lipgloss.Color("#00FFFF"),
		Success:     lipgloss.Color("#00FF00"),
		Warning:     lipgloss.Color("#FFFF00"),
		Danger:      lipgloss.Color("#FF0000"),
		Muted:       lipgloss.Color("#D1D5DB"),
		Background:  lipgloss.Color("#000000"),
		ShowBorders: true,
		CompactMode: false,
	}
)

// allPresets is the canonical list of available theme presets.
var allPresets = []ThemePreset{MonitoringTheme, MinimalTheme, ContrastTheme}

// GetThemePreset returns the theme preset matching the given name.
// Unknown names return MonitoringTheme as the default.
func GetThemePreset(name string) ThemePreset {
	for _, p := range allPresets {
		if p.Name == name {
			return p
		}
	}
	return MonitoringTheme
}

// IsThemePreset reports whether name is a known preset.
func IsThemePreset(name string) bool {
	for _, p := range allPresets {
		if p.Name == name {
			return true
		}
	}
	return false
}

// AllThemePresets returns all available theme presets.
func AllThemePresets() []ThemePreset {
	out := make([]ThemePreset, len(allPresets))
	copy(out, allPresets)
	return out
}
