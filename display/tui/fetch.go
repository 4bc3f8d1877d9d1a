package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

// tickMsg fires once per poll interval.
type tickMsg time.Time

// fetchedMsg carries a completed fetch back to the UI goroutine, where it is
// committed in sequence order.
type fetchedMsg struct {
	outcome poll.Outcome
}

// tickCmd schedules the next poll tick.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd returns a tea.Cmd that performs one fetch off the UI goroutine.
// The buffer is not touched here; Commit happens when the message arrives.
func fetchCmd(ctx context.Context, loop *poll.Loop, seq uint64) tea.Cmd {
	return func() tea.Msg {
		return fetchedMsg{outcome: loop.Fetch(ctx, seq)}
	}
}
