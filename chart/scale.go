// Package chart draws the four-series traffic chart onto a density-aware
// surface and maps pointer positions back to sample indices.
package chart

import "math"

const (
	// DefaultMinRange is the smallest vertical span the axis will show.
	// Flatter data is centred in a span of this size.
	DefaultMinRange = 6.0

	// paddingFraction is added above and below the data when it spreads
	// wider than the minimum range.
	paddingFraction = 0.20
)

// Domain is the vertical axis domain for one render.
type Domain struct {
	MinY  float64
	MaxY  float64
	Range float64 // always >= 1
}

// ComputeScale derives the axis domain from every buffered value using
// DefaultMinRange.
func ComputeScale(values []float64) Domain {
	return ComputeScaleWithMin(values, DefaultMinRange)
}

// ComputeScaleWithMin derives the axis domain with a custom minimum span.
// Empty input is treated as a single zero, giving [-minRange/2, minRange/2].
func ComputeScaleWithMin(values []float64, minRange float64) Domain {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}

	span := maxY - minY
	if math.IsNaN(span) || math.IsInf(span, 0) {
		minY, maxY, span = 0, 0, 0
	}

	if span < minRange {
		mid := (maxY + minY) / 2
		minY = mid - minRange/2
		maxY = mid + minRange/2
	} else {
		pad := span * paddingFraction
		minY -= pad
		maxY += pad
	}

	r := maxY - minY
	if r < 1 {
		r = 1
	}
	return Domain{MinY: minY, MaxY: maxY, Range: r}
}
