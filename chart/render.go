package chart

import (
	"image/color"

	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

const (
	// DefaultPad is the margin around the plot area on every side.
	DefaultPad = 28.0

	// DefaultLineWidth is the series stroke width in CSS pixels.
	DefaultLineWidth = 2.2

	// gridLines is the number of horizontal gridlines, including both edges.
	gridLines = 6
)

// Palette holds the chart colours.
type Palette struct {
	Background color.RGBA
	Frame      color.RGBA
	Grid       color.RGBA
	Series     map[series.Kind]color.RGBA
}

// DefaultPalette is tuned for a dark terminal background.
func DefaultPalette() Palette {
	return Palette{
		Background: color.RGBA{R: 0x0f, G: 0x14, B: 0x1c, A: 0xff},
		Frame:      color.RGBA{R: 0x2c, G: 0x30, B: 0x37, A: 0xff},
		Grid:       color.RGBA{R: 0x23, G: 0x28, B: 0x2f, A: 0xff},
		Series: map[series.Kind]color.RGBA{
			series.Flows:   {R: 0x4a, G: 0xa3, B: 0xff, A: 0xf2},
			series.ACL:     {R: 0xff, G: 0x5d, B: 0x5d, A: 0xf2},
			series.DDoS:    {R: 0xff, G: 0xcc, B: 0x66, A: 0xf2},
			series.Allowed: {R: 0x7a, G: 0xff, B: 0xb4, A: 0xe6},
		},
	}
}

// Renderer draws a series.Reader onto a Surface.
type Renderer struct {
	Pad       float64
	LineWidth float64
	MinRange  float64
	Palette   Palette
}

// NewRenderer returns a renderer with default geometry and colours.
func NewRenderer() *Renderer {
	return &Renderer{
		Pad:       DefaultPad,
		LineWidth: DefaultLineWidth,
		MinRange:  DefaultMinRange,
		Palette:   DefaultPalette(),
	}
}

// Frame describes what one Render call drew.
type Frame struct {
	Size   Size
	Points int
	Domain Domain
	// Drawn is false when fewer than two points were available.
	Drawn bool
}

// Mapper converts between sample space and CSS pixel space for one frame.
type Mapper struct {
	Pad    float64
	PlotW  float64
	PlotH  float64
	N      int
	Domain Domain
}

// NewMapper builds the coordinate mapping for a chart of the given CSS size.
func NewMapper(width, height, pad float64, n int, d Domain) Mapper {
	return Mapper{
		Pad:    pad,
		PlotW:  width - pad*2,
		PlotH:  height - pad*2,
		N:      n,
		Domain: d,
	}
}

// X maps sample index i to a horizontal pixel position.
func (m Mapper) X(i int) float64 {
	if m.N < 2 {
		return m.Pad
	}
	return m.Pad + float64(i)/float64(m.N-1)*m.PlotW
}

// Y maps a value to a vertical pixel position. Larger values are higher up.
func (m Mapper) Y(v float64) float64 {
	return m.Pad + (1-(v-m.Domain.MinY)/m.Domain.Range)*m.PlotH
}

// Render draws the frame, gridlines, and four series onto s.
// The surface is resized on every call so density changes take effect.
func (r *Renderer) Render(buf series.Reader, s Surface, size Size) Frame {
	dpr := size.DPR
	if dpr <= 0 {
		dpr = 1
	}
	w, h := size.Width, size.Height
	frame := Frame{Size: Size{Width: w, Height: h, DPR: dpr}, Points: buf.Len()}

	s.Resize(w, h, dpr)
	s.Clear()
	s.StrokeRect(Rect{X: 0.5, Y: 0.5, W: w - 1, H: h - 1}, r.Palette.Frame, 1)

	n := buf.Len()
	if n < 2 {
		return frame
	}

	// Pool every stored value, including those past the last label. A series
	// shorter than the labels also pools the 0 drawn for its missing indices
	// so every vertex stays inside the domain.
	pool := make([]float64, 0, n*len(series.Kinds))
	for _, k := range series.Kinds {
		vals := buf.Values(k)
		pool = append(pool, vals...)
		if len(vals) < n {
			pool = append(pool, 0)
		}
	}
	minRange := r.MinRange
	if minRange <= 0 {
		minRange = DefaultMinRange
	}
	domain := ComputeScaleWithMin(pool, minRange)
	frame.Domain = domain

	m := NewMapper(w, h, r.Pad, n, domain)

	for g := 0; g < gridLines; g++ {
		y := m.Pad + float64(g)/float64(gridLines-1)*m.PlotH
		s.StrokePolyline([]Point{{m.Pad, y}, {m.Pad + m.PlotW, y}}, r.Palette.Grid, 1)
	}

	for _, k := range series.Kinds {
		s.StrokePolyline(Polyline(buf, k, m), r.Palette.Series[k], r.LineWidth)
	}

	frame.Drawn = true
	return frame
}

// Polyline returns one vertex per buffer index for series k. Missing values
// are plotted as 0 so the line stays continuous.
func Polyline(buf series.Reader, k series.Kind, m Mapper) []Point {
	pts := make([]Point, m.N)
	for i := 0; i < m.N; i++ {
		pts[i] = Point{X: m.X(i), Y: m.Y(buf.Value(k, i))}
	}
	return pts
}
