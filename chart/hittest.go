package chart

import (
	"math"
	"strconv"

	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

// Tooltip is the content shown for the sample nearest to the pointer.
type Tooltip struct {
	Index  int
	Label  string
	Values [4]float64 // indexed by series.Kind
}

// Value returns the tooltip value for series k.
func (t Tooltip) Value(k series.Kind) float64 {
	if k < 0 || int(k) >= len(t.Values) {
		return 0
	}
	return t.Values[k]
}

// Lines renders the tooltip as the label followed by one line per series.
func (t Tooltip) Lines() []string {
	lines := make([]string, 0, 1+len(series.Kinds))
	lines = append(lines, t.Label)
	for _, k := range series.Kinds {
		lines = append(lines, k.Title()+": "+FormatValue(t.Value(k)))
	}
	return lines
}

// FormatValue prints a sample with the shortest exact representation.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Locate maps pointer p to the nearest sample index. box is the chart's
// bounding box in the same coordinate space as p. It reports false when the
// buffer holds fewer than two points or p lies outside the padded plot area.
func Locate(p Point, box Rect, buf series.Reader, pad float64) (Tooltip, bool) {
	n := buf.Len()
	if n < 2 {
		return Tooltip{}, false
	}

	x := p.X - box.X
	y := p.Y - box.Y
	if x < pad || x > box.W-pad || y < 0 || y > box.H {
		return Tooltip{}, false
	}

	plotW := box.W - pad*2
	idx := 0
	if plotW > 0 {
		t := (x - pad) / plotW
		idx = int(math.Round(t * float64(n-1)))
	}
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}

	tip := Tooltip{Index: idx, Label: buf.Label(idx)}
	for _, k := range series.Kinds {
		tip.Values[k] = buf.Value(k, idx)
	}
	return tip, true
}

// Placement offsets a box of size (w, h) from the pointer and clamps it to
// stay inside a container of size (maxW, maxH). All values share one unit.
func Placement(px, py, w, h, offX, offY, maxW, maxH int) (int, int) {
	x := px + offX
	y := py + offY
	if x+w > maxW {
		x = px - offX - w
	}
	if y+h > maxH {
		y = maxH - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
