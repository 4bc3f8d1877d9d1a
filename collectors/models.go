package collectors

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is one polled payload from the controller dashboard API:
// counters, per-second time series, and the most recent events.
//
// Every field is optional on the wire and no field is fatal: missing or
// wrongly typed values decode as zero values, numbers sent as strings are
// parsed, and a document that is not an object decodes as an empty snapshot.
type Snapshot struct {
	StartedAt  string     `json:"started_at,omitempty"`
	UpdatedAt  string     `json:"updated_at,omitempty"`
	Counters   Counters   `json:"counters"`
	TimeSeries TimeSeries `json:"timeseries"`
	LastEvents []Event    `json:"last_events,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	*s = Snapshot{}
	var raw struct {
		StartedAt  json.RawMessage `json:"started_at"`
		UpdatedAt  json.RawMessage `json:"updated_at"`
		Counters   Counters        `json:"counters"`
		TimeSeries TimeSeries      `json:"timeseries"`
		LastEvents json.RawMessage `json:"last_events"`
	}
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return nil
	}

	s.StartedAt = text(raw.StartedAt)
	s.UpdatedAt = text(raw.UpdatedAt)
	s.Counters = raw.Counters
	s.TimeSeries = raw.TimeSeries
	for _, e := range elements(raw.LastEvents) {
		var ev Event
		_ = ev.UnmarshalJSON(e)
		s.LastEvents = append(s.LastEvents, ev)
	}
	return nil
}

// Counters holds the monotonically increasing totals shown as KPIs.
type Counters struct {
	EventsTotal    int64 `json:"events_total"`
	ACLDropsTotal  int64 `json:"acl_drops_total"`
	DDoSFlagsTotal int64 `json:"ddos_flags_total"`
	AllowedTotal   int64 `json:"allowed_total"`
}

// UnmarshalJSON implements json.Unmarshaler. Fractions are truncated.
func (c *Counters) UnmarshalJSON(data []byte) error {
	*c = Counters{}
	var raw struct {
		EventsTotal    json.RawMessage `json:"events_total"`
		ACLDropsTotal  json.RawMessage `json:"acl_drops_total"`
		DDoSFlagsTotal json.RawMessage `json:"ddos_flags_total"`
		AllowedTotal   json.RawMessage `json:"allowed_total"`
	}
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return nil
	}
	c.EventsTotal = count(raw.EventsTotal)
	c.ACLDropsTotal = count(raw.ACLDropsTotal)
	c.DDoSFlagsTotal = count(raw.DDoSFlagsTotal)
	c.AllowedTotal = count(raw.AllowedTotal)
	return nil
}

// TimeSeries holds the server's trailing window of per-second samples.
// The slices are expected to be parallel, but nothing enforces it.
type TimeSeries struct {
	Labels          []string `json:"labels"`
	FlowsPerSec     []Sample `json:"flows_per_sec"`
	ACLDropsPerSec  []Sample `json:"acl_drops_per_sec"`
	DDoSFlagsPerSec []Sample `json:"ddos_flags_per_sec"`
	AllowedPerSec   []Sample `json:"allowed_per_sec"`
}

// UnmarshalJSON implements json.Unmarshaler. A field that is not an array
// decodes as empty; labels that are not strings keep their JSON text.
func (t *TimeSeries) UnmarshalJSON(data []byte) error {
	*t = TimeSeries{}
	var raw struct {
		Labels          json.RawMessage `json:"labels"`
		FlowsPerSec     json.RawMessage `json:"flows_per_sec"`
		ACLDropsPerSec  json.RawMessage `json:"acl_drops_per_sec"`
		DDoSFlagsPerSec json.RawMessage `json:"ddos_flags_per_sec"`
		AllowedPerSec   json.RawMessage `json:"allowed_per_sec"`
	}
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return nil
	}

	if items := elements(raw.Labels); items != nil {
		t.Labels = make([]string, len(items))
		for i, item := range items {
			t.Labels[i] = text(item)
		}
	}
	t.FlowsPerSec = samples(raw.FlowsPerSec)
	t.ACLDropsPerSec = samples(raw.ACLDropsPerSec)
	t.DDoSFlagsPerSec = samples(raw.DDoSFlagsPerSec)
	t.AllowedPerSec = samples(raw.AllowedPerSec)
	return nil
}

// Event is one entry of the controller's recent-events log.
type Event struct {
	// TS is kept verbatim so unparsable timestamps degrade at display time.
	TS    string          `json:"ts"`
	Level string          `json:"level"`
	Msg   string          `json:"msg"`
	Extra json.RawMessage `json:"extra,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Non-string text fields keep
// their JSON text; an entry that is not an object decodes as a blank event.
func (e *Event) UnmarshalJSON(data []byte) error {
	*e = Event{}
	var raw struct {
		TS    json.RawMessage `json:"ts"`
		Level json.RawMessage `json:"level"`
		Msg   json.RawMessage `json:"msg"`
		Extra json.RawMessage `json:"extra"`
	}
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return nil
	}
	e.TS = text(raw.TS)
	e.Level = text(raw.Level)
	e.Msg = text(raw.Msg)
	if extra := bytes.TrimSpace(raw.Extra); len(extra) > 0 && !bytes.Equal(extra, []byte("null")) {
		e.Extra = append(json.RawMessage(nil), extra...)
	}
	return nil
}

// Sample is a single time-series value. Null, booleans, objects and
// non-numeric strings decode as 0 instead of failing the whole snapshot.
type Sample float64

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sample) UnmarshalJSON(data []byte) error {
	*s = Sample(number(data))
	return nil
}

// Floats converts a sample slice to plain float64 values.
func Floats(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}

// IsEmpty returns true when the snapshot carries no series and no events.
func (s *Snapshot) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.TimeSeries.Labels) == 0 && len(s.LastEvents) == 0 &&
		s.Counters == (Counters{})
}

// number reads a JSON value as a finite float: numbers as-is, numeric
// strings parsed, everything else 0.
func number(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	switch data[0] {
	case '"':
		var str string
		if err := jsonAPI.Unmarshal(data, &str); err != nil {
			return 0
		}
		data = []byte(strings.TrimSpace(str))
	case 'n', 't', 'f', '{', '[':
		return 0
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// count reads a JSON value as a counter, truncating fractions and clamping
// to the int64 range.
func count(data []byte) int64 {
	f := math.Trunc(number(data))
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// text reads a JSON value as display text: strings verbatim, null as empty,
// anything else as its JSON text.
func text(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	if data[0] != '"' {
		return string(data)
	}
	var str string
	if err := jsonAPI.Unmarshal(data, &str); err != nil {
		return ""
	}
	return str
}

// elements splits a JSON array into its raw items. Anything that is not an
// array yields nil.
func elements(data []byte) []json.RawMessage {
	var items []json.RawMessage
	if err := jsonAPI.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

func samples(data []byte) []Sample {
	items := elements(data)
	if items == nil {
		return nil
	}
	out := make([]Sample, len(items))
	for i, item := range items {
		out[i] = Sample(number(item))
	}
	return out
}
