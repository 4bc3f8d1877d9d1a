// Package collectors provides the data collection interface for sdn-pulse
// and the snapshot model shared by the fetcher, buffer, and display layers.
package collectors

import (
	"context"
	"time"
)

// Collector is the interface that snapshot sources must implement.
// A collector performs one fetch-and-decode cycle per call; scheduling is
// the caller's job.
type Collector interface {
	// Name returns the collector's identifier (e.g., "dashboard").
	Name() string

	// Description returns a human-readable description of the source.
	Description() string

	// Interval returns the recommended polling interval for this collector.
	Interval() time.Duration

	// Collect performs one collection run.
	// A nil Snapshot with a nil error means the source has no data yet.
	// The context should be respected for cancellation of the request.
	Collect(ctx context.Context) (*CollectResult, error)
}

// CollectResult holds the output of a collection run.
type CollectResult struct {
	// Collector is the name of the collector that produced this result.
	Collector string `json:"collector"`

	// Timestamp records when the collection completed.
	Timestamp time.Time `json:"timestamp"`

	// Snapshot is the decoded payload, or nil when the source reported an
	// empty body.
	Snapshot *Snapshot `json:"snapshot,omitempty"`

	// Latency is the wall time the collection took.
	Latency time.Duration `json:"latency"`
}
