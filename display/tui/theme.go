package tui

import "github.com/charmbracelet/lipgloss"

// styles holds every lipgloss style the dashboard renders with. It is built
// once per model from a ThemePreset.
type styles struct {
	theme ThemePreset

	header  lipgloss.Style
	title   lipgloss.Style
	meta    lipgloss.Style
	section lipgloss.Style
	footer  lipgloss.Style
	tooltip lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(preset ThemePreset) styles {
	s := styles{theme: preset}

	if preset.ShowBorders {
		s.header = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(preset.Muted)
	} else {
		s.header = lipgloss.NewStyle()
	}

	s.title = lipgloss.NewStyle().
		Bold(true).
		Foreground(preset.Primary)

	s.meta = lipgloss.NewStyle().
		Foreground(preset.Muted)

	s.section = lipgloss.NewStyle().
		Foreground(preset.Secondary)

	s.footer = lipgloss.NewStyle().
		Foreground(preset.Muted)

	s.tooltip = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(preset.Secondary).
		Background(preset.Background).
		Padding(0, 1)

	s.muted = lipgloss.NewStyle().
		Foreground(preset.Muted)

	return s
}
