package chart

import "image/color"

// Point is a position in CSS pixel units.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned box in CSS pixel units.
type Rect struct {
	X, Y, W, H float64
}

// Size is the logical size of the chart and the display density factor.
type Size struct {
	// Width and Height are the CSS (logical) dimensions.
	Width, Height float64
	// DPR is the device pixel ratio. Values <= 0 are treated as 1.
	DPR float64
}

// Surface is the drawing target of the renderer. All coordinates and line
// widths are in CSS pixels; implementations apply the density scale.
type Surface interface {
	// Resize sets the backing resolution to floor(css * dpr) per axis and
	// installs a uniform dpr scale for subsequent drawing.
	Resize(cssWidth, cssHeight, dpr float64)
	// Clear fills the whole surface with its background.
	Clear()
	// StrokeRect outlines a rectangle.
	StrokeRect(r Rect, c color.Color, width float64)
	// StrokePolyline draws connected segments through pts.
	StrokePolyline(pts []Point, c color.Color, width float64)
}

// BackingSize returns the device pixel dimensions for a logical size.
func BackingSize(cssWidth, cssHeight, dpr float64) (int, int) {
	if dpr <= 0 {
		dpr = 1
	}
	w := int(cssWidth * dpr)
	h := int(cssHeight * dpr)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
