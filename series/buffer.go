// Package series holds the rolling sample window shown by the chart.
//
// The buffer is a view of the server's latest window, not an independently
// accumulated history: every applied snapshot replaces all five sequences.
package series

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
)

const (
	// DefaultMaxPoints is the maximum number of samples retained per series.
	DefaultMaxPoints = 120

	// Placeholder is shown where a label is missing.
	Placeholder = "—"
)

// Kind identifies one of the four numeric series.
type Kind int

const (
	Flows Kind = iota
	ACL
	DDoS
	Allowed
	kindCount
)

// Kinds lists the numeric series in draw order. Later series are drawn on top.
var Kinds = []Kind{Flows, ACL, DDoS, Allowed}

// String returns the short series name.
func (k Kind) String() string {
	switch k {
	case Flows:
		return "flows"
	case ACL:
		return "acl"
	case DDoS:
		return "ddos"
	case Allowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Title returns the per-second label used in legends and tooltips.
func (k Kind) Title() string {
	switch k {
	case Flows:
		return "flows/sec"
	case ACL:
		return "acl drops/sec"
	case DDoS:
		return "ddos flags/sec"
	case Allowed:
		return "allowed/sec"
	default:
		return "unknown"
	}
}

// Reader is the read-only view of a Buffer used by the renderer and the
// hit tester.
type Reader interface {
	// Len returns the number of labelled points.
	Len() int
	// Label returns the label at i, or Placeholder when out of range.
	Label(i int) string
	// Value returns the sample of kind k at i, or 0 when out of range.
	Value(k Kind, i int) float64
	// Values returns a copy of the whole series of kind k.
	Values(k Kind) []float64
}

// Buffer holds five parallel bounded sequences. The zero value is not
// usable; create one with New.
type Buffer struct {
	maxPoints int
	labels    []string
	values    [kindCount][]float64
}

// Compile-time check: Buffer satisfies Reader.
var _ Reader = (*Buffer)(nil)

// New creates an empty buffer. A non-positive maxPoints uses DefaultMaxPoints.
func New(maxPoints int) *Buffer {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Buffer{maxPoints: maxPoints}
}

// MaxPoints returns the window capacity.
func (b *Buffer) MaxPoints() int {
	return b.maxPoints
}

// Apply replaces the buffer contents with the snapshot's time series, each
// field independently truncated to its last MaxPoints entries. A nil
// snapshot leaves the buffer untouched and Apply returns false.
//
// Lengths are not cross-checked; a ragged snapshot produces ragged series and
// readers fall back to defaults for missing indices.
func (b *Buffer) Apply(snap *collectors.Snapshot) bool {
	if snap == nil {
		return false
	}

	ts := snap.TimeSeries
	b.labels = tailStrings(ts.Labels, b.maxPoints)
	b.values[Flows] = tailSamples(ts.FlowsPerSec, b.maxPoints)
	b.values[ACL] = tailSamples(ts.ACLDropsPerSec, b.maxPoints)
	b.values[DDoS] = tailSamples(ts.DDoSFlagsPerSec, b.maxPoints)
	b.values[Allowed] = tailSamples(ts.AllowedPerSec, b.maxPoints)
	return true
}

// Len returns the number of labels, which defines the x axis.
func (b *Buffer) Len() int {
	return len(b.labels)
}

// SeriesLen returns the stored length of one numeric series.
func (b *Buffer) SeriesLen(k Kind) int {
	if k < 0 || k >= kindCount {
		return 0
	}
	return len(b.values[k])
}

// Label returns the label at i, or Placeholder if i is out of range.
func (b *Buffer) Label(i int) string {
	if i < 0 || i >= len(b.labels) {
		return Placeholder
	}
	return b.labels[i]
}

// Value returns the value of series k at i, or 0 if i is out of range or the
// stored value is not finite.
func (b *Buffer) Value(k Kind, i int) float64 {
	if k < 0 || k >= kindCount {
		return 0
	}
	vals := b.values[k]
	if i < 0 || i >= len(vals) {
		return 0
	}
	v := vals[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Values returns a copy of series k.
func (b *Buffer) Values(k Kind) []float64 {
	if k < 0 || k >= kindCount {
		return nil
	}
	out := make([]float64, len(b.values[k]))
	copy(out, b.values[k])
	return out
}

// Fingerprint hashes the buffered window. Two buffers with equal contents
// produce equal fingerprints.
func (b *Buffer) Fingerprint() uint64 {
	h := xxh3.New()
	var scratch [8]byte

	binary.LittleEndian.PutUint64(scratch[:], uint64(len(b.labels)))
	_, _ = h.Write(scratch[:])
	for _, l := range b.labels {
		_, _ = h.WriteString(l)
		_, _ = h.Write([]byte{0})
	}
	for k := range b.values {
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(b.values[k])))
		_, _ = h.Write(scratch[:])
		for _, v := range b.values[k] {
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
			_, _ = h.Write(scratch[:])
		}
	}
	return h.Sum64()
}

func tailStrings(in []string, max int) []string {
	if len(in) > max {
		in = in[len(in)-max:]
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func tailSamples(in []collectors.Sample, max int) []float64 {
	if len(in) > max {
		in = in[len(in)-max:]
	}
	return collectors.Floats(in)
}
