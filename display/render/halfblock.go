// Package render turns raster images into terminal text using Unicode
// half-block characters with ANSI 24-bit colour. Each text cell shows two
// vertically stacked pixels.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned when the source image has no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Cells is a block of rendered terminal lines, one string per row.
type Cells struct {
	Cols  int
	Rows  int
	Lines []string
}

// String joins the lines with newlines.
func (c Cells) String() string {
	return strings.Join(c.Lines, "\n")
}

// Resample scales img to exactly cols x rows*2 pixels. The box filter averages
// every source pixel, so thin lines stay visible when shrinking a hi-density
// raster.
func Resample(img image.Image, cols, rows int) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid cell size %dx%d", cols, rows)
	}
	return imaging.Resize(img, cols, rows*2, imaging.Box), nil
}

// HalfBlocks renders img into a cols x rows cell grid.
func HalfBlocks(img image.Image, cols, rows int) (Cells, error) {
	px, err := Resample(img, cols, rows)
	if err != nil {
		return Cells{}, err
	}
	return encode(px), nil
}

// encode writes one upper-half-block per cell: foreground is the top pixel,
// background the bottom one. Colour escapes are only emitted on change.
func encode(px *image.NRGBA) Cells {
	b := px.Bounds()
	w, h := b.Dx(), b.Dy()
	out := Cells{Cols: w, Rows: (h + 1) / 2}

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		sb.Reset()
		var lastFg, lastBg color.NRGBA
		first := true
		for x := 0; x < w; x++ {
			fg := px.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			var bg color.NRGBA
			if y+1 < h {
				bg = px.NRGBAAt(b.Min.X+x, b.Min.Y+y+1)
			}
			if first || fg != lastFg {
				fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm", fg.R, fg.G, fg.B)
			}
			if first || bg != lastBg {
				fmt.Fprintf(&sb, "\x1b[48;2;%d;%d;%dm", bg.R, bg.G, bg.B)
			}
			sb.WriteString("▀")
			lastFg, lastBg, first = fg, bg, false
		}
		sb.WriteString("\x1b[0m")
		out.Lines = append(out.Lines, sb.String())
	}
	return out
}
