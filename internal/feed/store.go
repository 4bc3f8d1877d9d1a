// Package feed serves dashboard snapshots the way the controller does: a
// thread-safe store of counters, per-second ring buffers and recent events,
// an HTTP handler exposing it, and a synthetic traffic generator for demos
// and tests.
package feed

import (
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

const (
	// DefaultMaxPoints is the length of each per-second ring buffer.
	DefaultMaxPoints = 120
	// DefaultMaxEvents is the number of recent events kept.
	DefaultMaxEvents = 60

	labelLayout = "15:04:05"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store accumulates controller activity. Counters grow monotonically; the
// per-second tallies are moved into the ring buffers by Tick.
type Store struct {
	mu sync.Mutex

	maxPoints int
	maxEvents int
	now       func() time.Time

	startedAt time.Time
	updatedAt time.Time
	counters  collectors.Counters

	// pending holds the current second's tallies, indexed by series.Kind.
	pending [4]int64
	labels  []string
	samples [4][]collectors.Sample
	// events are newest first.
	events []collectors.Event
}

// NewStore creates a store. Non-positive sizes use the defaults; a nil clock
// uses time.Now.
func NewStore(maxPoints, maxEvents int, now func() time.Time) *Store {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Store{
		maxPoints: maxPoints,
		maxEvents: maxEvents,
		now:       now,
		startedAt: t,
		updatedAt: t,
	}
}

// Tick closes the current second: it appends one label and one sample per
// series, resets the tallies, and bumps updated_at even without traffic.
func (s *Store) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	s.labels = pushBounded(s.labels, t.Local().Format(labelLayout), s.maxPoints)
	for _, k := range series.Kinds {
		s.samples[k] = pushBounded(s.samples[k], collectors.Sample(s.pending[k]), s.maxPoints)
		s.pending[k] = 0
	}
	s.updatedAt = t
}

// Log records an event. extra is encoded as a JSON object; nil encodes as {}.
func (s *Store) Log(level, msg string, extra map[string]any) {
	if extra == nil {
		extra = map[string]any{}
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		raw = []byte("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.EventsTotal++
	s.updatedAt = s.now()
	ev := collectors.Event{
		TS:    formatTime(s.updatedAt),
		Level: level,
		Msg:   msg,
		Extra: raw,
	}
	s.events = append([]collectors.Event{ev}, s.events...)
	if len(s.events) > s.maxEvents {
		s.events = s.events[:s.maxEvents]
	}
}

// IncFlow counts one new flow.
func (s *Store) IncFlow() {
	s.mu.Lock()
	s.pending[series.Flows]++
	s.mu.Unlock()
}

// IncACLDrop counts one flow denied by the ACL.
func (s *Store) IncACLDrop() {
	s.mu.Lock()
	s.counters.ACLDropsTotal++
	s.pending[series.ACL]++
	s.mu.Unlock()
}

// IncDDoSFlag counts one source flagged for flooding.
func (s *Store) IncDDoSFlag() {
	s.mu.Lock()
	s.counters.DDoSFlagsTotal++
	s.pending[series.DDoS]++
	s.mu.Unlock()
}

// IncAllowed counts one flow permitted by the ACL.
func (s *Store) IncAllowed() {
	s.mu.Lock()
	s.counters.AllowedTotal++
	s.pending[series.Allowed]++
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state in the dashboard wire shape.
func (s *Store) Snapshot() *collectors.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &collectors.Snapshot{
		StartedAt: formatTime(s.startedAt),
		UpdatedAt: formatTime(s.updatedAt),
		Counters:  s.counters,
		TimeSeries: collectors.TimeSeries{
			Labels:          append([]string{}, s.labels...),
			FlowsPerSec:     append([]collectors.Sample{}, s.samples[series.Flows]...),
			ACLDropsPerSec:  append([]collectors.Sample{}, s.samples[series.ACL]...),
			DDoSFlagsPerSec: append([]collectors.Sample{}, s.samples[series.DDoS]...),
			AllowedPerSec:   append([]collectors.Sample{}, s.samples[series.Allowed]...),
		},
		LastEvents: append([]collectors.Event{}, s.events...),
	}
	return snap
}

// SnapshotJSON encodes the current snapshot.
func (s *Store) SnapshotJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// pushBounded appends v, dropping the oldest element once max is reached.
func pushBounded[T any](s []T, v T, max int) []T {
	if len(s) < max {
		return append(s, v)
	}
	copy(s, s[1:])
	s[len(s)-1] = v
	return s
}
