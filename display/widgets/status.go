package widgets

import (
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

// StatusLevel represents the severity of the poll status indicator.
type StatusLevel int

const (
	// StatusOK indicates the last fetch was applied.
	StatusOK StatusLevel = iota
	// StatusWarning indicates no data or a paused feed.
	StatusWarning
	// StatusCritical indicates the last fetch failed.
	StatusCritical
	// StatusUnknown indicates nothing has been fetched yet.
	StatusUnknown
	// StatusPending indicates a fetch is in flight.
	StatusPending
)

// StatusConfig holds the configuration for rendering a status indicator.
type StatusConfig struct {
	Level    StatusLevel
	Text     string
	ShowIcon bool
}

var statusIcons = map[StatusLevel]string{
	StatusOK:       "●",
	StatusWarning:  "●",
	StatusCritical: "●",
	StatusUnknown:  "○",
	StatusPending:  "◌",
}

var statusColors = map[StatusLevel]lipgloss.Color{
	StatusOK:       lipgloss.Color("#22C55E"),
	StatusWarning:  lipgloss.Color("#EAB308"),
	StatusCritical: lipgloss.Color("#EF4444"),
	StatusUnknown:  lipgloss.Color("#6B7280"),
	StatusPending:  lipgloss.Color("#3B82F6"),
}

// RenderStatus renders a status indicator with an optional colored icon and text.
func RenderStatus(cfg StatusConfig) string {
	style := lipgloss.NewStyle().Foreground(statusColors[cfg.Level])

	if cfg.ShowIcon {
		icon := style.Render(statusIcons[cfg.Level])
		if cfg.Text == "" {
			return icon
		}
		return icon + " " + cfg.Text
	}

	return style.Render(cfg.Text)
}

// StatusLevelForPoll maps a committed tick state to an indicator level.
func StatusLevelForPoll(s poll.State) StatusLevel {
	switch s {
	case poll.StateOK:
		return StatusOK
	case poll.StateNoData, poll.StateCircuitOpen:
		return StatusWarning
	case poll.StateError:
		return StatusCritical
	default:
		return StatusUnknown
	}
}

// RenderPollStatus renders the status line for the most recent tick. A zero
// sequence means nothing has completed yet.
func RenderPollStatus(r poll.Report, inFlight bool) string {
	if r.Seq == 0 {
		level, text := StatusUnknown, "waiting for first poll"
		if inFlight {
			level, text = StatusPending, "connecting…"
		}
		return RenderStatus(StatusConfig{Level: level, Text: text, ShowIcon: true})
	}
	return RenderStatus(StatusConfig{
		Level:    StatusLevelForPoll(r.State),
		Text:     "Status: " + r.Status,
		ShowIcon: true,
	})
}
