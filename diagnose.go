package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/sdn-pulse/cache"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/dashboard"
	"gitlab.com/tinyland/lab/sdn-pulse/config"
	"gitlab.com/tinyland/lab/sdn-pulse/display/terminal"
	"gitlab.com/tinyland/lab/sdn-pulse/internal/format"
	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

const diagRule = "------------------------------------------------------------"

// runDiagnostics checks the configured endpoint, the terminal and the cache,
// printing actionable feedback. It returns the process exit code.
func runDiagnostics(ctx context.Context, w io.Writer, cfg *config.Config, configPath string, geom terminal.Geometry) int {
	fmt.Fprintln(w, "🔍 sdn-pulse diagnostics")
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "📁 Config file: %s\n", configPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "   ❌ Invalid: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, "   ✅ Valid")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🖥  Terminal")
	fmt.Fprintln(w, diagRule)
	cols, rows := terminal.DetectSize()
	cssW, cssH := geom.CSSSize(cols, rows)
	fmt.Fprintf(w, "   Size:          %dx%d cells (%.0fx%.0f css px)\n", cols, rows, cssW, cssH)
	fmt.Fprintf(w, "   Cell:          %.0fx%.0f css px\n", geom.CellWidth, geom.CellHeight)
	fmt.Fprintf(w, "   Density:       %.2fx\n", geom.DPR)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🌐 Dashboard endpoint")
	fmt.Fprintln(w, diagRule)
	fmt.Fprintf(w, "   URL:           %s\n", cfg.Dashboard.URL)
	fmt.Fprint(w, "   Testing fetch... ")

	client := dashboard.NewClient(cfg.Dashboard.URL, cfg.Dashboard.Timeout(), nil)
	start := time.Now()
	snap, err := client.Fetch(ctx)
	latency := time.Since(start)

	code := 0
	if err != nil {
		fmt.Fprintln(w, "❌ FAILED")
		fmt.Fprintln(w)
		describeFetchError(w, err)
		code = 1
	} else {
		fmt.Fprintf(w, "✅ SUCCESS (%s)\n", format.FormatDuration(latency))
		fmt.Fprintln(w)
		describeSnapshot(w, snap, cfg.Dashboard.MaxPoints)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "💾 Cache")
	fmt.Fprintln(w, diagRule)
	describeCache(w, cfg)
	fmt.Fprintln(w)

	if code == 0 {
		fmt.Fprintln(w, "✨ All diagnostics passed! sdn-pulse should work correctly.")
	}
	return code
}

func describeFetchError(w io.Writer, err error) {
	var se *dashboard.StatusError
	var netErr net.Error
	switch {
	case errors.As(err, &se):
		fmt.Fprintf(w, "   Error: endpoint answered HTTP %d\n", se.StatusCode)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "💡 Solution: check dashboard.url points at /api/dashboard")
	case dashboard.IsDecode(err):
		fmt.Fprintln(w, "   Error: response is not JSON")
		fmt.Fprintf(w, "   Details: %v\n", err)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "💡 Solution: make sure the URL serves the controller's dashboard API")
	case errors.As(err, &netErr) && netErr.Timeout():
		fmt.Fprintln(w, "   Error: request timed out")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "💡 Solution: raise dashboard.request_timeout or check the controller load")
	default:
		fmt.Fprintln(w, "   Error: network connectivity issue")
		fmt.Fprintf(w, "   Details: %v\n", err)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "💡 Solution: is the controller (or sdn-pulse-demo-feed) running?")
	}
}

func describeSnapshot(w io.Writer, snap *collectors.Snapshot, maxPoints int) {
	if snap == nil {
		fmt.Fprintln(w, "   ⚠️  Endpoint returned no data yet")
		return
	}
	fmt.Fprintln(w, "📊 Snapshot")
	fmt.Fprintln(w, diagRule)
	if snap.IsEmpty() {
		fmt.Fprintln(w, "   ⚠️  Snapshot is empty (no counters, points or events yet)")
		return
	}
	fmt.Fprintf(w, "   Updated:       %s\n", format.FormatTimestamp(snap.UpdatedAt, time.Local))

	buf := series.New(maxPoints)
	buf.Apply(snap)
	fmt.Fprintf(w, "   Points:        %d of %d\n", buf.Len(), buf.MaxPoints())
	for _, k := range series.Kinds {
		if n := buf.SeriesLen(k); n != buf.Len() {
			fmt.Fprintf(w, "   ⚠️  %s has %d points for %d labels\n", k.Title(), n, buf.Len())
		}
	}
	fmt.Fprintf(w, "   Events:        %s total, %d recent\n",
		humanize.Comma(snap.Counters.EventsTotal), len(snap.LastEvents))
	fmt.Fprintf(w, "   ACL drops:     %s\n", humanize.Comma(snap.Counters.ACLDropsTotal))
	fmt.Fprintf(w, "   DDoS flags:    %s\n", humanize.Comma(snap.Counters.DDoSFlagsTotal))
}

func describeCache(w io.Writer, cfg *config.Config) {
	store, err := cache.NewStore(cfg.Cache.Dir, nil)
	if err != nil {
		fmt.Fprintf(w, "   ❌ %v\n", err)
		return
	}
	fmt.Fprintf(w, "   Dir:           %s\n", store.Dir())
	meta, err := store.Meta()
	if err != nil || len(meta.LastUpdate) == 0 {
		fmt.Fprintln(w, "   Entries:       none (run with -headless to populate)")
		return
	}
	for _, key := range store.Keys() {
		fmt.Fprintf(w, "   %-14s %s, written %s\n", key+":",
			humanize.Bytes(uint64(meta.Sizes[key])), humanize.Time(meta.LastUpdate[key]))
	}
}
