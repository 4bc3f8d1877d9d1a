package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/sdn-pulse/cache"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/dashboard"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/retry"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

func newHealthStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func okReport(at time.Time) poll.Report {
	return poll.Report{
		Seq:     7,
		State:   poll.StateOK,
		Status:  poll.StatusOK,
		Latency: 42 * time.Millisecond,
		At:      at,
	}
}

func TestHealthFromReport(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := healthFromReport(okReport(at), "http://c/api/dashboard", at, "closed")

	if h.State != "ok" || h.Status != poll.StatusOK {
		t.Errorf("state/status = %q/%q", h.State, h.Status)
	}
	if h.Seq != 7 || h.LatencyMS != 42 || h.Breaker != "closed" {
		t.Errorf("unexpected record %+v", h)
	}
	if !h.LastPoll.Equal(at) || !h.LastOK.Equal(at) {
		t.Errorf("times = %v / %v", h.LastPoll, h.LastOK)
	}
}

func TestWriteReadHealthFile(t *testing.T) {
	store := newHealthStore(t)
	at := time.Now()

	if err := writeHealthFile(store, healthFromReport(okReport(at), "u", at, "")); err != nil {
		t.Fatalf("writeHealthFile: %v", err)
	}

	status, err := readHealthFile(store)
	if err != nil {
		t.Fatalf("readHealthFile: %v", err)
	}
	if status.State != "ok" || status.URL != "u" {
		t.Errorf("status = %+v", status)
	}
	if !status.LastPoll.Equal(at) {
		t.Errorf("last_poll = %v, want %v", status.LastPoll, at)
	}
}

func TestReadHealthFile_Missing(t *testing.T) {
	if _, err := readHealthFile(newHealthStore(t)); err == nil {
		t.Error("expected error for missing health record")
	}
}

func TestCheckHealth_Missing(t *testing.T) {
	var buf bytes.Buffer
	if code := checkHealth(&buf, newHealthStore(t), time.Second, false, time.Now()); code != 1 {
		t.Errorf("expected exit code 1 for missing health, got %d", code)
	}
	if !strings.Contains(buf.String(), "not running") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCheckHealth_Fresh(t *testing.T) {
	store := newHealthStore(t)
	now := time.Now()
	if err := writeHealthFile(store, healthFromReport(okReport(now.Add(-500*time.Millisecond)), "u", now, "")); err != nil {
		t.Fatalf("writeHealthFile: %v", err)
	}

	var buf bytes.Buffer
	if code := checkHealth(&buf, store, time.Second, false, now); code != 0 {
		t.Errorf("expected exit code 0 for fresh health, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "poller healthy") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCheckHealth_Stale(t *testing.T) {
	store := newHealthStore(t)
	now := time.Now()
	old := now.Add(-time.Hour)
	if err := writeHealthFile(store, healthFromReport(okReport(old), "u", old, "")); err != nil {
		t.Fatalf("writeHealthFile: %v", err)
	}

	var buf bytes.Buffer
	if code := checkHealth(&buf, store, time.Second, false, now); code != 1 {
		t.Errorf("expected exit code 1 for stale health, got %d", code)
	}
	if !strings.Contains(buf.String(), "stale") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCheckHealth_FailingJSON(t *testing.T) {
	store := newHealthStore(t)
	now := time.Now()
	rep := poll.Report{Seq: 3, State: poll.StateError, Status: poll.StatusError, At: now}
	if err := writeHealthFile(store, healthFromReport(rep, "u", time.Time{}, "open")); err != nil {
		t.Fatalf("writeHealthFile: %v", err)
	}

	var buf bytes.Buffer
	if code := checkHealth(&buf, store, time.Second, true, now); code != 1 {
		t.Errorf("expected exit code 1 for a failing poller, got %d", code)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if out["health"] != "failing" || out["breaker"] != "open" {
		t.Errorf("output = %v", out)
	}
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"none", nil, ""},
		{"http", &dashboard.StatusError{StatusCode: 502}, "http"},
		{"wrapped http", fmt.Errorf("tick: %w", &dashboard.StatusError{StatusCode: 503}), "http"},
		{"decode", &dashboard.DecodeError{Size: 3, Err: errors.New("bad")}, "decode"},
		{"circuit", retry.ErrCircuitOpen, "circuit"},
		{"network", context.DeadlineExceeded, "network"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failureKind(tt.err); got != tt.want {
				t.Errorf("failureKind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestCheckHealth_FailingNamesHTTPError(t *testing.T) {
	store := newHealthStore(t)
	now := time.Now()
	rep := poll.Report{
		Seq:    4,
		State:  poll.StateError,
		Status: poll.StatusError,
		Err:    &dashboard.StatusError{StatusCode: 500},
		At:     now,
	}
	if err := writeHealthFile(store, healthFromReport(rep, "u", time.Time{}, "")); err != nil {
		t.Fatalf("writeHealthFile: %v", err)
	}

	var buf bytes.Buffer
	if code := checkHealth(&buf, store, time.Second, false, now); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "http error") {
		t.Errorf("output = %q", buf.String())
	}
}
