package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/display/terminal"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

// fixedCollector always returns the same snapshot.
type fixedCollector struct {
	snap *collectors.Snapshot
}

func (f *fixedCollector) Name() string            { return "fixed" }
func (f *fixedCollector) Description() string     { return "fixed snapshot" }
func (f *fixedCollector) Interval() time.Duration { return time.Second }

func (f *fixedCollector) Collect(ctx context.Context) (*collectors.CollectResult, error) {
	return &collectors.CollectResult{Collector: "fixed", Snapshot: f.snap}, nil
}

func threePointSnapshot() *collectors.Snapshot {
	return &collectors.Snapshot{
		StartedAt: "2024-05-01T12:00:00Z",
		UpdatedAt: "2024-05-01T12:00:02Z",
		Counters:  collectors.Counters{EventsTotal: 1234, ACLDropsTotal: 5},
		TimeSeries: collectors.TimeSeries{
			Labels:      []string{"12:00:00", "12:00:01", "12:00:02"},
			FlowsPerSec: []collectors.Sample{1, 2, 3},
		},
		LastEvents: []collectors.Event{
			{TS: "2024-05-01T12:00:01Z", Level: "warning", Msg: "acl drop from 10.0.0.9"},
		},
	}
}

// newTestModel returns a sized model whose loop has not polled yet.
func newTestModel(t *testing.T, snap *collectors.Snapshot, opts Options) (Model, *poll.Loop) {
	t.Helper()
	loop := poll.New(&fixedCollector{snap: snap}, series.New(series.DefaultMaxPoints), nil)
	zm := zone.New()
	t.Cleanup(zm.Close)
	opts.Zones = zm
	opts.Location = time.UTC
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC) }
	}
	m := NewModel(loop, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return updated.(Model), loop
}

// polled runs one fetch through Update, as the program would.
func polled(t *testing.T, m Model, loop *poll.Loop) Model {
	t.Helper()
	out := loop.Fetch(context.Background(), loop.Next())
	updated, _ := m.Update(fetchedMsg{outcome: out})
	return updated.(Model)
}

func terminalGeometry(dpr float64) terminal.Geometry {
	g := terminal.DefaultGeometry()
	g.DPR = dpr
	return g
}

// isQuitCmd executes a tea.Cmd and returns true if it produces a tea.QuitMsg.
func isQuitCmd(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	msg := cmd()
	_, ok := msg.(tea.QuitMsg)
	return ok
}

func TestNewModel_Defaults(t *testing.T) {
	loop := poll.New(&fixedCollector{}, series.New(series.DefaultMaxPoints), nil)
	zm := zone.New()
	defer zm.Close()

	m := NewModel(loop, Options{Zones: zm})
	if m.ready {
		t.Error("expected ready to be false before the first resize")
	}
	if m.interval != poll.DefaultInterval {
		t.Errorf("expected default interval, got %v", m.interval)
	}
	if m.geom.DPR != 1 || m.geom.CellWidth != 8 || m.geom.CellHeight != 16 {
		t.Errorf("expected default geometry, got %+v", m.geom)
	}
	if m.renderer == nil || m.renderer.Pad != 28 {
		t.Error("expected the default renderer")
	}
	if m.styles.theme.Name != "monitoring" {
		t.Errorf("expected monitoring theme, got %q", m.styles.theme.Name)
	}
	if got := m.View(); got != "Initializing..." {
		t.Errorf("expected placeholder view, got %q", got)
	}
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel(t, nil, Options{})
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("expected Init to start polling")
	}
	if _, ok := cmd().(tickMsg); !ok {
		t.Error("expected Init to produce a tick immediately")
	}
}

func TestModel_Update_Quit(t *testing.T) {
	m, _ := newTestModel(t, nil, Options{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !isQuitCmd(cmd) {
		t.Error("expected 'q' key to produce tea.Quit command")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuitCmd(cmd) {
		t.Error("expected ctrl+c to produce tea.Quit command")
	}
}

func TestModel_TickStartsFetch(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})

	updated, cmd := m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a batched fetch and next tick")
	}
	if m.inFlight != 1 {
		t.Errorf("expected one fetch in flight, got %d", m.inFlight)
	}
	if next := loop.Next(); next != 2 {
		t.Errorf("expected the tick to take sequence 1, next is %d", next)
	}
}

func TestModel_RefreshKeyFetches(t *testing.T) {
	m, _ := newTestModel(t, threePointSnapshot(), Options{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected a fetch command")
	}
	msg, ok := cmd().(fetchedMsg)
	if !ok {
		t.Fatalf("expected fetchedMsg, got %T", cmd())
	}
	if msg.outcome.Seq != 1 || msg.outcome.Snapshot == nil {
		t.Errorf("unexpected outcome %+v", msg.outcome)
	}

	updated, _ = m.Update(msg)
	m = updated.(Model)
	if m.inFlight != 0 {
		t.Errorf("expected no fetch in flight after commit, got %d", m.inFlight)
	}
	if m.loop.Buffer().Len() != 3 {
		t.Errorf("expected 3 buffered points, got %d", m.loop.Buffer().Len())
	}
}

func TestModel_CommitRendersDashboard(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})
	m = polled(t, m, loop)

	if len(m.cells.Lines) != m.plan.ChartRows || m.cells.Cols != 80 {
		t.Errorf("expected %dx80 chart cells, got %dx%d", m.plan.ChartRows, len(m.cells.Lines), m.cells.Cols)
	}
	if !m.frame.Drawn {
		t.Error("expected the series to be drawn")
	}

	view := m.View()
	for _, want := range []string{
		"SDN Pulse",
		"updated 2024-05-01 12:00:02",
		"uptime 1h 0m",
		"1,234",
		"Status: OK (fetch succeeded)",
		"Recent events",
		"WARNING",
		"acl drop from 10.0.0.9",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestModel_StaleResponseIgnored(t *testing.T) {
	m, loop := newTestModel(t, nil, Options{})

	older := &collectors.Snapshot{Counters: collectors.Counters{EventsTotal: 13579}}
	newer := &collectors.Snapshot{Counters: collectors.Counters{EventsTotal: 98765}}
	s1, s2 := loop.Next(), loop.Next()

	updated, _ := m.Update(fetchedMsg{outcome: poll.Outcome{Seq: s2, Snapshot: newer}})
	m = updated.(Model)
	updated, _ = m.Update(fetchedMsg{outcome: poll.Outcome{Seq: s1, Snapshot: older}})
	m = updated.(Model)

	if loop.Latest() != newer {
		t.Error("expected the older response to be dropped")
	}
	view := m.View()
	if strings.Contains(view, "13,579") {
		t.Error("stale counters should never be displayed")
	}
	if !strings.Contains(view, "98,765") {
		t.Error("expected the newer counters to be displayed")
	}
}

func TestModel_ErrorKeepsPreviousData(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})
	m = polled(t, m, loop)

	updated, _ := m.Update(fetchedMsg{outcome: poll.Outcome{Seq: loop.Next(), Err: context.DeadlineExceeded}})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Status: API error (see log)") {
		t.Error("expected the error status")
	}
	if !strings.Contains(view, "1,234") {
		t.Error("expected the previous counters to stay on screen")
	}
	if m.loop.Buffer().Len() != 3 {
		t.Errorf("expected the buffer to be untouched, got %d points", m.loop.Buffer().Len())
	}
}

func TestModel_HoverShowsTooltip(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})
	m = polled(t, m, loop)

	// Cell 40 is at CSS x=324 on a 640px chart: the middle sample.
	m.pointer = func(tea.MouseMsg) (int, int, bool) { return 40, 0, true }
	updated, _ := m.Update(tea.MouseMsg{Action: tea.MouseActionMotion})
	m = updated.(Model)

	if !m.tipVisible {
		t.Fatal("expected the tooltip to be visible")
	}
	if m.tip.Index != 1 || m.tip.Label != "12:00:01" {
		t.Errorf("expected sample 1, got %+v", m.tip)
	}

	view := m.View()
	if !strings.Contains(view, "12:00:01") || !strings.Contains(view, "flows/sec: 2") {
		t.Error("expected the tooltip text in the view")
	}
}

func TestModel_HoverOutsidePlotHides(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})
	m = polled(t, m, loop)

	m.pointer = func(tea.MouseMsg) (int, int, bool) { return 40, 0, true }
	updated, _ := m.Update(tea.MouseMsg{Action: tea.MouseActionMotion})
	m = updated.(Model)

	// Cell 2 is at CSS x=20, inside the left padding.
	m.pointer = func(tea.MouseMsg) (int, int, bool) { return 2, 0, true }
	updated, _ = m.Update(tea.MouseMsg{Action: tea.MouseActionMotion})
	m = updated.(Model)
	if m.tipVisible {
		t.Error("expected the tooltip to hide over the padding")
	}

	m.pointer = func(tea.MouseMsg) (int, int, bool) { return 40, 0, true }
	updated, _ = m.Update(tea.MouseMsg{Action: tea.MouseActionMotion})
	m = updated.(Model)

	m.pointer = func(tea.MouseMsg) (int, int, bool) { return 0, 0, false }
	updated, _ = m.Update(tea.MouseMsg{Action: tea.MouseActionMotion})
	m = updated.(Model)
	if m.tipVisible || m.hovering {
		t.Error("expected the tooltip to hide when the pointer leaves the chart")
	}
}

func TestModel_HoverNeedsTwoPoints(t *testing.T) {
	snap := &collectors.Snapshot{TimeSeries: collectors.TimeSeries{
		Labels:      []string{"12:00:00"},
		FlowsPerSec: []collectors.Sample{4},
	}}
	m, loop := newTestModel(t, snap, Options{})
	m = polled(t, m, loop)

	m.pointer = func(tea.MouseMsg) (int, int, bool) { return 40, 0, true }
	updated, _ := m.Update(tea.MouseMsg{Action: tea.MouseActionMotion})
	m = updated.(Model)
	if m.tipVisible {
		t.Error("expected no tooltip with a single point")
	}
	if m.frame.Drawn {
		t.Error("expected only the frame to be drawn")
	}
}

func TestModel_MouseReleaseIgnored(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})
	m = polled(t, m, loop)

	called := false
	m.pointer = func(tea.MouseMsg) (int, int, bool) { called = true; return 40, 0, true }
	updated, _ := m.Update(tea.MouseMsg{Action: tea.MouseActionRelease})
	m = updated.(Model)
	if called || m.tipVisible {
		t.Error("expected release events to be ignored")
	}
}

func TestModel_ResizeRedrawsChart(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})
	m = polled(t, m, loop)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	m = updated.(Model)
	if m.cells.Cols != 140 {
		t.Errorf("expected 140 chart columns, got %d", m.cells.Cols)
	}
	if m.layout.SparkWidth != LayoutForSize(LayoutWide).SparkWidth {
		t.Error("expected the wide layout")
	}
	w, h := m.raster.Image().Bounds().Dx(), m.raster.Image().Bounds().Dy()
	if w != 140*8 || h != m.plan.ChartRows*16 {
		t.Errorf("expected backing %dx%d, got %dx%d", 140*8, m.plan.ChartRows*16, w, h)
	}
}

func TestModel_DensityScalesBacking(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{
		Geometry: terminalGeometry(2),
	})
	m = polled(t, m, loop)

	w := m.raster.Image().Bounds().Dx()
	if w != 80*8*2 {
		t.Errorf("expected a double-density backing width of %d, got %d", 80*8*2, w)
	}
	if len(m.cells.Lines) != m.plan.ChartRows {
		t.Error("expected the cell grid to stay at the logical size")
	}
}

func TestModel_ResizeRemeasuresDensity(t *testing.T) {
	dpr := 1.0
	m, loop := newTestModel(t, threePointSnapshot(), Options{
		Measure: func() terminal.Geometry { return terminalGeometry(dpr) },
	})
	m = polled(t, m, loop)
	if m.frame.Size.DPR != 1 {
		t.Fatalf("expected density 1 before the move, got %v", m.frame.Size.DPR)
	}

	dpr = 2
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = updated.(Model)
	if m.frame.Size.DPR != 2 {
		t.Errorf("expected the frame to follow the new density, got %v", m.frame.Size.DPR)
	}
	if w := m.raster.Image().Bounds().Dx(); w != 80*8*2 {
		t.Errorf("expected a backing width of %d after the move, got %d", 80*8*2, w)
	}
}

func TestModel_ResizeWithoutMeasureKeepsDensity(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{Geometry: terminalGeometry(2)})
	m = polled(t, m, loop)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 90, Height: 40})
	m = updated.(Model)
	if m.frame.Size.DPR != 2 {
		t.Errorf("expected density 2 to be kept, got %v", m.frame.Size.DPR)
	}
}

func TestModel_LegendToggle(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{})
	m = polled(t, m, loop)
	before := m.plan.ChartRows

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	m = updated.(Model)
	if !m.sparkLegend {
		t.Fatal("expected the sparkline legend")
	}
	if m.plan.ChartRows >= before {
		t.Errorf("expected the chart to shrink for the taller legend, %d -> %d", before, m.plan.ChartRows)
	}
	if h := lipgloss.Height(m.renderLegend()); h != len(series.Kinds) {
		t.Errorf("expected one legend line per series, got %d", h)
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t, nil, Options{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = updated.(Model)
	if !m.help.ShowAll {
		t.Error("expected full help after '?'")
	}
	if !strings.Contains(m.View(), "toggle sparkline legend") {
		t.Error("expected the full help listing")
	}
}

func TestModel_MinimalThemeIsCompact(t *testing.T) {
	m, loop := newTestModel(t, threePointSnapshot(), Options{Theme: "minimal"})
	m = polled(t, m, loop)

	if m.layout.ShowKPIBoxes {
		t.Error("expected inline counters for the minimal theme")
	}
	if strings.Contains(m.View(), "╭") {
		t.Error("expected no rounded KPI boxes")
	}
}

func TestModel_EventsCappedToFit(t *testing.T) {
	snap := threePointSnapshot()
	snap.LastEvents = nil
	for i := 0; i < 50; i++ {
		snap.LastEvents = append(snap.LastEvents, collectors.Event{Msg: "event-marker"})
	}
	m, loop := newTestModel(t, snap, Options{MaxEvents: 5})
	m = polled(t, m, loop)

	if n := strings.Count(m.View(), "event-marker"); n != 5 {
		t.Errorf("expected 5 event rows, got %d", n)
	}
}

func TestStaticFrame_NoData(t *testing.T) {
	loop := poll.New(&fixedCollector{}, series.New(series.DefaultMaxPoints), nil)
	frame := StaticFrame(loop, Options{Location: time.UTC}, 80, 30)

	for _, want := range []string{"SDN Pulse", "No events.", "waiting for first poll"} {
		if !strings.Contains(frame, want) {
			t.Errorf("expected frame to contain %q", want)
		}
	}
}
