// Package poll drives the fixed-interval fetch of dashboard snapshots and
// commits completed fetches into the series buffer in tick order.
package poll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/retry"
	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

// DefaultInterval is the poll period.
const DefaultInterval = time.Second

// Status strings shown to the user.
const (
	StatusOK      = "OK (fetch succeeded)"
	StatusNoData  = "no data"
	StatusError   = "API error (see log)"
	statusOpenFmt = "API unavailable (retry in %ds)"
)

// State classifies the result of one committed tick.
type State int

const (
	StateOK State = iota
	StateNoData
	StateError
	StateCircuitOpen
	// StateStale marks a response that completed after a newer tick had
	// already been committed. It is discarded.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateNoData:
		return "no-data"
	case StateError:
		return "error"
	case StateCircuitOpen:
		return "circuit-open"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Outcome is the raw result of one fetch, before it is committed.
type Outcome struct {
	Seq      uint64
	Started  time.Time
	Latency  time.Duration
	Snapshot *collectors.Snapshot
	Err      error
}

// Report is what the consumer sees after Commit.
type Report struct {
	Seq      uint64
	State    State
	Status   string
	Snapshot *collectors.Snapshot
	Err      error
	Latency  time.Duration
	At       time.Time
}

// Applied reports whether the buffer changed as a result of this tick.
func (r Report) Applied() bool {
	return r.State == StateOK
}

// errTracker deduplicates repeated identical fetch errors.
type errTracker struct {
	lastMsg    string
	lastTime   time.Time
	suppressed int64
}

// Loop owns the series buffer. Fetch may be called from any goroutine;
// Commit and the read accessors must be called from a single consumer
// goroutine.
type Loop struct {
	src    collectors.Collector
	buf    *series.Buffer
	logger *slog.Logger

	next      atomic.Uint64
	committed uint64
	latest    *collectors.Snapshot
	last      Report
	errs      errTracker
}

// New creates a loop that fetches from src and writes into buf. A nil
// logger discards output.
func New(src collectors.Collector, buf *series.Buffer, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{src: src, buf: buf, logger: logger}
}

// Buffer returns the read-only view of the series buffer.
func (l *Loop) Buffer() series.Reader {
	return l.buf
}

// Fingerprint returns the buffer fingerprint.
func (l *Loop) Fingerprint() uint64 {
	return l.buf.Fingerprint()
}

// Latest returns the last applied snapshot, or nil.
func (l *Loop) Latest() *collectors.Snapshot {
	return l.latest
}

// Last returns the most recent non-stale report.
func (l *Loop) Last() Report {
	return l.last
}

// Next allocates the sequence number for a new tick.
func (l *Loop) Next() uint64 {
	return l.next.Add(1)
}

// Fetch performs one collection for tick seq. Panics in the collector are
// recovered and reported as errors.
func (l *Loop) Fetch(ctx context.Context, seq uint64) (out Outcome) {
	out.Seq = seq
	out.Started = time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Snapshot = nil
			out.Err = fmt.Errorf("collector %s panicked: %v", l.src.Name(), r)
		}
		out.Latency = time.Since(out.Started)
	}()

	res, err := l.src.Collect(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	if res != nil {
		out.Snapshot = res.Snapshot
	}
	return out
}

// Commit applies a completed fetch. Outcomes whose sequence is not newer than
// the last committed tick are dropped without touching the buffer.
func (l *Loop) Commit(o Outcome) Report {
	rep := Report{
		Seq:      o.Seq,
		Snapshot: o.Snapshot,
		Err:      o.Err,
		Latency:  o.Latency,
		At:       o.Started,
	}

	if o.Seq <= l.committed {
		rep.State = StateStale
		rep.Status = l.last.Status
		l.logger.Debug("dropping stale poll response",
			"seq", o.Seq, "committed", l.committed, "latency", o.Latency)
		return rep
	}
	l.committed = o.Seq

	var open *retry.OpenError
	switch {
	case errors.As(o.Err, &open):
		rep.State = StateCircuitOpen
		rep.Status = fmt.Sprintf(statusOpenFmt, int(open.RetryIn.Round(time.Second).Seconds()))
		l.logger.Debug("poll skipped, circuit open", "retry_in", open.RetryIn)
	case o.Err != nil:
		rep.State = StateError
		rep.Status = StatusError
		l.logError(o.Err)
	case o.Snapshot == nil:
		rep.State = StateNoData
		rep.Status = StatusNoData
		l.logger.Debug("poll returned no data", "seq", o.Seq)
	default:
		l.buf.Apply(o.Snapshot)
		l.latest = o.Snapshot
		rep.State = StateOK
		rep.Status = StatusOK
		l.clearErrors()
	}

	l.last = rep
	return rep
}

// Tick fetches and commits synchronously.
func (l *Loop) Tick(ctx context.Context) Report {
	return l.Commit(l.Fetch(ctx, l.Next()))
}

// Run polls every interval until ctx is cancelled, calling onReport for every
// committed tick. Fetches run concurrently so a slow response never delays
// the next tick; commits happen on the calling goroutine in arrival order and
// stale responses are fenced out by sequence number.
func (l *Loop) Run(ctx context.Context, interval time.Duration, onReport func(Report)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	results := make(chan Outcome)
	start := func() {
		seq := l.Next()
		go func() {
			o := l.Fetch(ctx, seq)
			select {
			case results <- o:
			case <-ctx.Done():
			}
		}()
	}

	start()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start()
		case o := <-results:
			if err := ctx.Err(); err != nil {
				return err
			}
			rep := l.Commit(o)
			if onReport != nil && rep.State != StateStale {
				onReport(rep)
			}
		}
	}
}

// logError suppresses identical consecutive errors for an hour, with a
// summary every 100 repeats.
func (l *Loop) logError(err error) {
	msg := err.Error()
	t := &l.errs
	now := time.Now()
	if msg == t.lastMsg && now.Sub(t.lastTime) < time.Hour {
		t.suppressed++
		if t.suppressed%100 == 0 {
			l.logger.Warn("poll error repeated", "error", err, "count", t.suppressed)
		}
		return
	}
	if t.suppressed > 0 {
		l.logger.Warn("previous poll error repeated", "count", t.suppressed)
	}
	l.logger.Error("poll failed", "collector", l.src.Name(), "error", err)
	t.lastMsg = msg
	t.lastTime = now
	t.suppressed = 0
}

func (l *Loop) clearErrors() {
	if l.errs.suppressed > 0 {
		l.logger.Warn("previous poll error repeated", "count", l.errs.suppressed)
	}
	l.errs = errTracker{}
}
