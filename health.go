package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/sdn-pulse/cache"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/dashboard"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/retry"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

// HealthStatus is the headless poller's last committed tick.
type HealthStatus struct {
	State     string    `json:"state"`
	Status    string    `json:"status"`
	URL       string    `json:"url"`
	Seq       uint64    `json:"seq"`
	LastPoll  time.Time `json:"last_poll"`
	LastOK    time.Time `json:"last_ok,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Breaker   string    `json:"breaker,omitempty"`
	// Failure classifies the last error: http, decode, circuit or network.
	Failure string `json:"failure,omitempty"`
}

// healthKey is the cache key of the health record.
const healthKey = "health"

var errNoHealth = errors.New("no health record found")

// healthFromReport builds a health record from a committed report.
func healthFromReport(rep poll.Report, url string, lastOK time.Time, breaker string) HealthStatus {
	return HealthStatus{
		State:     rep.State.String(),
		Status:    rep.Status,
		URL:       url,
		Seq:       rep.Seq,
		LastPoll:  rep.At,
		LastOK:    lastOK,
		LatencyMS: rep.Latency.Milliseconds(),
		Breaker:   breaker,
		Failure:   failureKind(rep.Err),
	}
}

// failureKind names the class of a fetch error for the health record.
func failureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, retry.ErrCircuitOpen):
		return "circuit"
	case dashboard.IsStatus(err):
		return "http"
	case dashboard.IsDecode(err):
		return "decode"
	default:
		return "network"
	}
}

// writeHealthFile stores the health record in the cache directory.
func writeHealthFile(store *cache.Store, status HealthStatus) error {
	if err := store.Set(healthKey, status); err != nil {
		return fmt.Errorf("write health record: %w", err)
	}
	return nil
}

// readHealthFile reads the health record from the cache directory.
func readHealthFile(store *cache.Store) (*HealthStatus, error) {
	status, _, err := cache.GetTyped[HealthStatus](store, healthKey, 0)
	if err != nil {
		return nil, fmt.Errorf("read health record: %w", err)
	}
	if status == nil {
		return nil, errNoHealth
	}
	return status, nil
}

// checkHealth reports whether the headless poller is healthy: its last poll
// must be within 2x the poll interval and must not have failed. Returns exit
// code 0 for healthy, 1 for unhealthy or missing.
func checkHealth(w io.Writer, store *cache.Store, pollInterval time.Duration, jsonOutput bool, now time.Time) int {
	status, err := readHealthFile(store)
	if err != nil {
		if jsonOutput {
			fmt.Fprintln(w, `{"health":"missing","error":"no health record found"}`)
		} else {
			fmt.Fprintln(w, "poller not running (no health record)")
		}
		return 1
	}

	staleThreshold := 2 * pollInterval
	age := now.Sub(status.LastPoll)
	isStale := age > staleThreshold
	failing := status.State == poll.StateError.String() || status.State == poll.StateCircuitOpen.String()

	if jsonOutput {
		output := map[string]any{
			"health":     healthWord(isStale, failing),
			"state":      status.State,
			"status":     status.Status,
			"url":        status.URL,
			"last_poll":  status.LastPoll.Format(time.RFC3339),
			"age":        age.Round(time.Millisecond).String(),
			"stale":      isStale,
			"latency_ms": status.LatencyMS,
		}
		if status.Breaker != "" {
			output["breaker"] = status.Breaker
		}
		if status.Failure != "" {
			output["failure"] = status.Failure
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		switch {
		case isStale:
			fmt.Fprintf(w, "poller stale (last poll %s, threshold %s)\n", humanize.RelTime(status.LastPoll, now, "ago", "from now"), staleThreshold)
		case failing && status.Failure != "":
			fmt.Fprintf(w, "poller failing: %s, %s error (%s)\n", status.Status, status.Failure, status.URL)
		case failing:
			fmt.Fprintf(w, "poller failing: %s (%s)\n", status.Status, status.URL)
		default:
			fmt.Fprintf(w, "poller healthy (last poll %s, %dms)\n", humanize.RelTime(status.LastPoll, now, "ago", "from now"), status.LatencyMS)
		}
		if !status.LastOK.IsZero() {
			fmt.Fprintf(w, "  last good snapshot: %s\n", humanize.RelTime(status.LastOK, now, "ago", "from now"))
		}
		if status.Breaker != "" {
			fmt.Fprintf(w, "  circuit: %s\n", status.Breaker)
		}
	}

	if isStale || failing {
		return 1
	}
	return 0
}

func healthWord(stale, failing bool) string {
	switch {
	case stale:
		return "stale"
	case failing:
		return "failing"
	default:
		return "ok"
	}
}
