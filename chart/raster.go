package chart

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Raster is a Surface backed by an RGBA image. Strokes go through a
// go-chart raster graphic context whose transform maps CSS pixels to device
// pixels.
type Raster struct {
	img        *image.RGBA
	gc         *drawing.RasterGraphicContext
	background color.RGBA
	scale      float64
	cssW, cssH float64
}

// Compile-time check: Raster satisfies Surface.
var _ Surface = (*Raster)(nil)

// NewRaster creates a raster surface with the given background colour.
// It has no backing image until the first Resize.
func NewRaster(background color.RGBA) *Raster {
	return &Raster{background: background, scale: 1}
}

// Resize reallocates the backing image when the device size changes and
// resets the context transform to the new density.
func (r *Raster) Resize(cssWidth, cssHeight, dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	w, h := BackingSize(cssWidth, cssHeight, dpr)
	if r.img == nil || r.img.Rect.Dx() != w || r.img.Rect.Dy() != h {
		r.img = image.NewRGBA(image.Rect(0, 0, w, h))
		r.gc = nil
	}
	if r.gc == nil || r.scale != dpr {
		// Only non-RGBA images are rejected; a nil context draws nothing.
		r.gc, _ = drawing.NewRasterGraphicContext(r.img)
		if r.gc != nil {
			r.gc.SetLineCap(drawing.ButtCap)
			r.gc.SetLineJoin(drawing.RoundJoin)
			r.gc.Scale(dpr, dpr)
		}
	}
	r.scale = dpr
	r.cssW, r.cssH = cssWidth, cssHeight
}

// Image returns the backing image, or nil before the first Resize.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// Scale returns the current density scale.
func (r *Raster) Scale() float64 {
	return r.scale
}

// Clear fills the backing image with the background colour.
func (r *Raster) Clear() {
	if r.img == nil {
		return
	}
	draw.Draw(r.img, r.img.Bounds(), &image.Uniform{C: r.background}, image.Point{}, draw.Src)
}

// StrokeRect outlines r as a closed polyline.
func (r *Raster) StrokeRect(rect Rect, c color.Color, width float64) {
	r.StrokePolyline([]Point{
		{rect.X, rect.Y},
		{rect.X + rect.W, rect.Y},
		{rect.X + rect.W, rect.Y + rect.H},
		{rect.X, rect.Y + rect.H},
		{rect.X, rect.Y},
	}, c, width)
}

// StrokePolyline strokes pts with the given width in CSS pixels. Strokes
// are never thinner than one device pixel. Zero-length segments are skipped
// and a non-finite point breaks the line.
func (r *Raster) StrokePolyline(pts []Point, c color.Color, width float64) {
	if r.gc == nil || len(pts) < 2 {
		return
	}
	if thinnest := 1 / r.scale; width < thinnest {
		width = thinnest
	}

	r.gc.BeginPath()
	drawn := false
	pen := false
	for i := 1; i < len(pts); i++ {
		p0, p1 := pts[i-1], pts[i]
		length := math.Hypot(p1.X-p0.X, p1.Y-p0.Y)
		if math.IsNaN(length) || math.IsInf(length, 0) {
			pen = false
			continue
		}
		if length == 0 {
			continue
		}
		if !pen {
			r.gc.MoveTo(p0.X, p0.Y)
			pen = true
		}
		r.gc.LineTo(p1.X, p1.Y)
		drawn = true
	}
	if !drawn {
		return
	}

	r.gc.SetStrokeColor(c)
	r.gc.SetLineWidth(width)
	r.gc.Stroke()
}
