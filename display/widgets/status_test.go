package widgets

import (
	"strings"
	"testing"

	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

func TestRenderStatus_Icons(t *testing.T) {
	tests := []struct {
		level StatusLevel
		icon  string
	}{
		{StatusOK, "●"},
		{StatusWarning, "●"},
		{StatusCritical, "●"},
		{StatusUnknown, "○"},
		{StatusPending, "◌"},
	}
	for _, tt := range tests {
		result := RenderStatus(StatusConfig{Level: tt.level, Text: "label", ShowIcon: true})
		if !strings.Contains(result, tt.icon) {
			t.Errorf("level %d: expected icon %q in %q", tt.level, tt.icon, result)
		}
		if !strings.Contains(result, "label") {
			t.Errorf("level %d: expected status text", tt.level)
		}
	}
}

func TestRenderStatus_NoIcon(t *testing.T) {
	result := RenderStatus(StatusConfig{Level: StatusOK, Text: "healthy"})
	if strings.Contains(result, "●") {
		t.Error("expected no dot icon when ShowIcon is false")
	}
	if !strings.Contains(result, "healthy") {
		t.Error("expected status text")
	}
}

func TestRenderStatus_EmptyText(t *testing.T) {
	result := RenderStatus(StatusConfig{Level: StatusCritical, ShowIcon: true})
	if !strings.Contains(result, "●") {
		t.Error("expected icon even with empty text")
	}
	if strings.HasSuffix(result, " ") {
		t.Error("expected no trailing space when text is empty")
	}
}

func TestStatusLevelForPoll(t *testing.T) {
	tests := []struct {
		state poll.State
		want  StatusLevel
	}{
		{poll.StateOK, StatusOK},
		{poll.StateNoData, StatusWarning},
		{poll.StateCircuitOpen, StatusWarning},
		{poll.StateError, StatusCritical},
		{poll.StateStale, StatusUnknown},
	}
	for _, tt := range tests {
		if got := StatusLevelForPoll(tt.state); got != tt.want {
			t.Errorf("StatusLevelForPoll(%v) = %d, want %d", tt.state, got, tt.want)
		}
	}
}

func TestRenderPollStatus(t *testing.T) {
	if got := RenderPollStatus(poll.Report{}, false); !strings.Contains(got, "waiting for first poll") {
		t.Errorf("expected waiting text, got %q", got)
	}
	if got := RenderPollStatus(poll.Report{}, true); !strings.Contains(got, "◌") {
		t.Errorf("expected pending icon while first fetch is in flight, got %q", got)
	}

	got := RenderPollStatus(poll.Report{Seq: 3, State: poll.StateError, Status: poll.StatusError}, false)
	if !strings.Contains(got, "Status: API error (see log)") {
		t.Errorf("expected error status text, got %q", got)
	}
}

func TestStatusTables_CoverAllLevels(t *testing.T) {
	for _, level := range []StatusLevel{StatusOK, StatusWarning, StatusCritical, StatusUnknown, StatusPending} {
		if statusIcons[level] == "" {
			t.Errorf("missing icon for level %d", level)
		}
		if statusColors[level] == "" {
			t.Errorf("missing color for level %d", level)
		}
	}
}
