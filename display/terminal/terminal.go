// Package terminal reports the terminal geometry the chart is laid out in:
// its size in cells and the pixel density of those cells.
package terminal

import (
	"math"
	"os"
	"strconv"

	"github.com/charmbracelet/x/term"
)

const (
	// DefaultCellWidth and DefaultCellHeight are the CSS pixel size of one
	// terminal cell at density 1.
	DefaultCellWidth  = 8.0
	DefaultCellHeight = 16.0

	// maxDensity bounds the derived density so a misreporting terminal
	// cannot allocate an enormous raster.
	maxDensity = 4.0
)

// DetectSize returns the current terminal dimensions in cells. It tries the
// stdout TTY, then COLUMNS/LINES, and finally 80x24.
func DetectSize() (cols, rows int) {
	w, h, err := term.GetSize(os.Stdout.Fd())
	if err == nil && w > 0 && h > 0 {
		return w, h
	}

	if v, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && v > 0 {
		cols = v
	}
	if v, err := strconv.Atoi(os.Getenv("LINES")); err == nil && v > 0 {
		rows = v
	}
	if cols == 0 {
		cols = 80
	}
	if rows == 0 {
		rows = 24
	}
	return cols, rows
}

// Geometry describes how terminal cells map to CSS and device pixels.
type Geometry struct {
	// CellWidth and CellHeight are the CSS pixel size of one cell.
	CellWidth  float64
	CellHeight float64
	// DPR is the device pixel ratio: device pixels per CSS pixel.
	DPR float64
}

// DefaultGeometry is used when the terminal reports no pixel size.
func DefaultGeometry() Geometry {
	return Geometry{CellWidth: DefaultCellWidth, CellHeight: DefaultCellHeight, DPR: 1}
}

// CSSSize returns the CSS pixel size of a block of cols x rows cells.
func (g Geometry) CSSSize(cols, rows int) (w, h float64) {
	return float64(cols) * g.CellWidth, float64(rows) * g.CellHeight
}

// CellCenter maps a cell coordinate to the CSS position of its centre.
func (g Geometry) CellCenter(col, row int) (x, y float64) {
	return (float64(col) + 0.5) * g.CellWidth, (float64(row) + 0.5) * g.CellHeight
}

// DensityFromPixels derives the density factor from the terminal's reported
// pixel size. It returns 1 when the pixel size is unknown.
func DensityFromPixels(cols, rows, xpix, ypix int, cellHeight float64) float64 {
	if cols <= 0 || rows <= 0 || xpix <= 0 || ypix <= 0 || cellHeight <= 0 {
		return 1
	}
	dpr := float64(ypix) / float64(rows) / cellHeight
	if math.IsNaN(dpr) || dpr < 1 {
		return 1
	}
	if dpr > maxDensity {
		return maxDensity
	}
	return math.Round(dpr*4) / 4
}

// Measure returns the geometry of the terminal on stdout. override > 0 forces
// the density. Cell sizes <= 0 use the defaults.
func Measure(cellWidth, cellHeight, override float64) Geometry {
	g := DefaultGeometry()
	if cellWidth > 0 {
		g.CellWidth = cellWidth
	}
	if cellHeight > 0 {
		g.CellHeight = cellHeight
	}
	if override > 0 {
		g.DPR = override
		return g
	}
	if cols, rows, xpix, ypix, ok := PixelSize(os.Stdout.Fd()); ok {
		g.DPR = DensityFromPixels(cols, rows, xpix, ypix, g.CellHeight)
	}
	return g
}
