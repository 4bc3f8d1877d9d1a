// Package tui implements the interactive sdn-pulse dashboard on bubbletea:
// header, counters, live chart with pointer tooltips, legend, poll status,
// and the recent-events table.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/sdn-pulse/chart"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/display/render"
	"gitlab.com/tinyland/lab/sdn-pulse/display/terminal"
	"gitlab.com/tinyland/lab/sdn-pulse/display/widgets"
	"gitlab.com/tinyland/lab/sdn-pulse/internal/format"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

const (
	chartZoneID = "sdn-pulse-chart"

	// tooltipOffset is the distance in CSS pixels between the pointer and
	// the tooltip's corner.
	tooltipOffset = 12.0

	appTitle = "SDN Pulse"
)

// Options configures a dashboard Model. Zero values select defaults.
type Options struct {
	// Context bounds every fetch. Defaults to context.Background.
	Context context.Context
	// Interval is the poll period. Defaults to poll.DefaultInterval.
	Interval time.Duration
	// Geometry maps cells to CSS pixels and sets the density factor.
	Geometry terminal.Geometry
	// Measure, when set, is re-run on every window resize so a move to a
	// screen with a different density redraws the chart at the new ratio.
	Measure func() terminal.Geometry
	// Renderer draws the chart. Defaults to chart.NewRenderer.
	Renderer *chart.Renderer
	// Theme is a preset name; unknown names fall back to "monitoring".
	Theme string
	// MaxEvents caps the events table. Defaults to widgets.MaxEventRows.
	MaxEvents int
	// Location is used for timestamp display. Defaults to time.Local.
	Location *time.Location
	// Zones tracks the chart's screen position for mouse events. The
	// caller owns it and closes it after the program exits.
	Zones  *zone.Manager
	Logger *slog.Logger
	Now    func() time.Time
}

// pointerFunc resolves a mouse event to a cell inside the chart, relative to
// its top-left corner.
type pointerFunc func(msg tea.MouseMsg) (col, row int, ok bool)

// chartKey identifies the inputs of the last chart render.
type chartKey struct {
	fingerprint uint64
	cols, rows  int
	dpr         float64
}

// Model is the top-level Bubbletea model for the sdn-pulse dashboard.
// All buffer mutation happens in Update, on the program's goroutine.
type Model struct {
	ctx       context.Context
	loop      *poll.Loop
	interval  time.Duration
	renderer  *chart.Renderer
	raster    *chart.Raster
	geom      terminal.Geometry
	measure   func() terminal.Geometry
	zones     *zone.Manager
	pointer   pointerFunc
	styles    styles
	help      help.Model
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
	maxEvents int

	width       int
	height      int
	ready       bool
	layout      LayoutConfig
	plan        sections
	sparkLegend bool
	inFlight    int

	key   chartKey
	cells render.Cells
	frame chart.Frame

	hovering   bool
	cursorCol  int
	cursorRow  int
	tip        chart.Tooltip
	tipVisible bool
}

// NewModel returns a dashboard bound to loop.
func NewModel(loop *poll.Loop, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Interval <= 0 {
		opts.Interval = poll.DefaultInterval
	}
	opts.Geometry = normalizeGeometry(opts.Geometry)
	if opts.Renderer == nil {
		opts.Renderer = chart.NewRenderer()
	}
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = widgets.MaxEventRows
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Zones == nil {
		opts.Zones = zone.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return Model{
		ctx:       opts.Context,
		loop:      loop,
		interval:  opts.Interval,
		renderer:  opts.Renderer,
		raster:    chart.NewRaster(opts.Renderer.Palette.Background),
		geom:      opts.Geometry,
		measure:   opts.Measure,
		zones:     opts.Zones,
		pointer:   zonePointer(opts.Zones),
		styles:    newStyles(GetThemePreset(opts.Theme)),
		help:      help.New(),
		logger:    opts.Logger,
		now:       opts.Now,
		loc:       opts.Location,
		maxEvents: opts.MaxEvents,
	}
}

// zonePointer resolves mouse events against the chart's marked zone.
func zonePointer(zm *zone.Manager) pointerFunc {
	return func(msg tea.MouseMsg) (int, int, bool) {
		z := zm.Get(chartZoneID)
		if z == nil || z.IsZero() {
			return 0, 0, false
		}
		col, row := z.Pos(msg)
		if col < 0 || row < 0 {
			return 0, 0, false
		}
		return col, row, true
	}
}

// Init implements tea.Model. The first poll starts immediately.
func (m Model) Init() tea.Cmd {
	now := m.now()
	return func() tea.Msg { return tickMsg(now) }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, m.startFetch()
		case key.Matches(msg, keys.Legend):
			m.sparkLegend = !m.sparkLegend
			m.relayout()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.relayout()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		if m.measure != nil {
			m.geom = normalizeGeometry(m.measure())
		}
		m.relayout()
		if m.hovering {
			m.locate()
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tickMsg:
		return m, tea.Batch(m.startFetch(), tickCmd(m.interval))

	case fetchedMsg:
		m.commit(msg.outcome)
	}

	return m, nil
}

// normalizeGeometry fills unset cell sizes and density with defaults.
func normalizeGeometry(g terminal.Geometry) terminal.Geometry {
	if g.CellWidth <= 0 || g.CellHeight <= 0 {
		dpr := g.DPR
		g = terminal.DefaultGeometry()
		if dpr > 0 {
			g.DPR = dpr
		}
	}
	if g.DPR <= 0 {
		g.DPR = 1
	}
	return g
}

// startFetch allocates the next sequence number and dispatches its fetch.
func (m *Model) startFetch() tea.Cmd {
	seq := m.loop.Next()
	m.inFlight++
	return fetchCmd(m.ctx, m.loop, seq)
}

// commit applies a completed fetch. Stale responses change nothing.
func (m *Model) commit(o poll.Outcome) {
	if m.inFlight > 0 {
		m.inFlight--
	}
	r := m.loop.Commit(o)
	if r.State == poll.StateStale {
		return
	}
	m.relayout()
	if m.hovering {
		m.locate()
	}
}

// relayout recomputes the section plan and redraws the chart if any of its
// inputs changed.
func (m *Model) relayout() {
	if !m.ready {
		return
	}
	size := DetectLayout(m.width)
	if m.styles.theme.CompactMode {
		size = LayoutCompact
	}
	m.layout = LayoutForSize(size)
	m.plan = planSections(m.height, m.fixedRows(), m.layout)
	m.refreshChart()
}

// fixedRows is the height of everything except the chart and events table.
func (m Model) fixedRows() int {
	return lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderKPIs()) +
		lipgloss.Height(m.renderLegend()) +
		lipgloss.Height(m.renderStatus()) +
		1 + // events section title
		lipgloss.Height(m.help.View(keys))
}

// chartSize is the chart's logical size in CSS pixels at the current density.
func (m Model) chartSize() chart.Size {
	w, h := m.geom.CSSSize(m.width, m.plan.ChartRows)
	return chart.Size{Width: w, Height: h, DPR: m.geom.DPR}
}

// refreshChart re-renders the raster and its cell encoding when the buffer,
// the chart's cell size, or the density changed since the last render.
func (m *Model) refreshChart() {
	cols, rows := m.width, m.plan.ChartRows
	if cols <= 0 || rows <= 0 {
		m.cells = render.Cells{}
		m.key = chartKey{}
		return
	}

	k := chartKey{fingerprint: m.loop.Fingerprint(), cols: cols, rows: rows, dpr: m.geom.DPR}
	if k == m.key && len(m.cells.Lines) > 0 {
		return
	}

	m.frame = m.renderer.Render(m.loop.Buffer(), m.raster, m.chartSize())
	cells, err := render.HalfBlocks(m.raster.Image(), cols, rows)
	if err != nil {
		m.logger.Debug("chart encode failed", "cols", cols, "rows", rows, "error", err)
		return
	}
	m.cells = cells
	m.key = k
}

// handleMouse updates the hover state. Motion outside the chart hides the
// tooltip, which is how a pointer leaving the chart is observed.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionMotion, tea.MouseActionPress:
	default:
		return
	}

	col, row, ok := m.pointer(msg)
	if !ok {
		m.hovering = false
		m.tipVisible = false
		return
	}
	m.hovering = true
	m.cursorCol, m.cursorRow = col, row
	m.locate()
}

// locate runs the hit test for the current cursor cell.
func (m *Model) locate() {
	size := m.chartSize()
	x, y := m.geom.CellCenter(m.cursorCol, m.cursorRow)
	box := chart.Rect{W: size.Width, H: size.Height}
	m.tip, m.tipVisible = chart.Locate(chart.Point{X: x, Y: y}, box, m.loop.Buffer(), m.renderer.Pad)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderKPIs(),
		m.zones.Mark(chartZoneID, m.renderChart()),
		m.renderLegend(),
		m.renderStatus(),
		m.styles.section.Render(sectionTitle("Recent events", m.width)),
		m.renderEvents(),
		m.styles.footer.Render(m.help.View(keys)),
	)
	return m.zones.Scan(view)
}

func (m Model) renderHeader() string {
	updated, uptime := format.Placeholder, format.Placeholder
	if snap := m.loop.Latest(); snap != nil {
		updated = format.FormatTimestamp(snap.UpdatedAt, m.loc)
		uptime = format.FormatUptime(snap.StartedAt, m.now())
	}
	title := m.styles.title.Render(appTitle)
	meta := m.styles.meta.Render(fmt.Sprintf("updated %s · uptime %s", updated, uptime))
	return m.styles.header.Width(m.width).Render(title + "  " + meta)
}

func (m Model) renderKPIs() string {
	var counters collectors.Counters
	if snap := m.loop.Latest(); snap != nil {
		counters = snap.Counters
	}
	kpis := widgets.KPIsFromCounters(counters)
	if m.layout.ShowKPIBoxes {
		return widgets.RenderKPIs(kpis, m.width, m.styles.theme.Muted, m.styles.theme.Muted)
	}

	parts := make([]string, len(kpis))
	for i, k := range kpis {
		value := lipgloss.NewStyle().Foreground(k.Color).Bold(true).Render(k.Value)
		parts[i] = m.styles.meta.Render(k.Title) + " " + value
	}
	return strings.Join(parts, "  ")
}

// renderChart returns the encoded chart, with the tooltip drawn over it
// while the pointer hovers a sample.
func (m Model) renderChart() string {
	lines := m.cells.Lines
	if len(lines) == 0 {
		return ""
	}
	if m.tipVisible {
		lines = m.withTooltip(lines)
	}
	return strings.Join(lines, "\n")
}

func (m Model) withTooltip(lines []string) []string {
	box := m.styles.tooltip.Render(strings.Join(m.tip.Lines(), "\n"))
	boxLines := strings.Split(box, "\n")

	offX := int(math.Ceil(tooltipOffset / m.geom.CellWidth))
	offY := int(math.Ceil(tooltipOffset / m.geom.CellHeight))
	x, y := chart.Placement(m.cursorCol, m.cursorRow,
		lipgloss.Width(box), len(boxLines), offX, offY, m.cells.Cols, m.cells.Rows)
	return overlay(lines, boxLines, x, y)
}

func (m Model) renderLegend() string {
	spark := 0
	if m.sparkLegend {
		spark = m.layout.SparkWidth
	}
	return widgets.RenderLegend(m.loop.Buffer(), spark)
}

func (m Model) renderStatus() string {
	r := m.loop.Last()
	status := widgets.RenderPollStatus(r, m.inFlight > 0)
	if r.Seq > 0 && r.Latency > 0 {
		status += "  " + widgets.RenderLatencyGauge(r.Latency, m.interval, m.layout.GaugeWidth)
	}
	return status
}

func (m Model) renderEvents() string {
	var events []collectors.Event
	if snap := m.loop.Latest(); snap != nil {
		events = snap.LastEvents
	}
	limit := m.plan.EventRows
	if m.maxEvents < limit {
		limit = m.maxEvents
	}
	return widgets.RenderEvents(events, widgets.EventsTableConfig{
		Width:      m.width,
		MaxRows:    limit,
		Location:   m.loc,
		HeaderText: m.styles.theme.Secondary,
		Muted:      m.styles.theme.Muted,
	})
}

// StaticFrame renders a single dashboard frame of width x height cells from
// the loop's current state, without starting a program.
func StaticFrame(loop *poll.Loop, opts Options, width, height int) string {
	if opts.Zones == nil {
		zm := zone.New()
		defer zm.Close()
		opts.Zones = zm
	}
	m := NewModel(loop, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.(Model).View()
}
