package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/sdn-pulse/cache"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/config"
	"gitlab.com/tinyland/lab/sdn-pulse/display/terminal"
	"gitlab.com/tinyland/lab/sdn-pulse/display/tui"
	"gitlab.com/tinyland/lab/sdn-pulse/internal/feed"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

// testLogger returns a quiet logger for test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testClock is a settable clock shared by the feed's store and policy.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// feedServer runs a demo feed with seconds of generated traffic behind an
// httptest server.
func feedServer(t *testing.T, seconds int) (*httptest.Server, *feed.Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := feed.NewStore(feed.DefaultMaxPoints, feed.DefaultMaxEvents, clock.Now)
	policy := feed.NewPolicy(store, nil, clock.Now)
	gen := feed.NewGenerator(store, policy, 1, testLogger())
	gen.AttackEvery = 10
	gen.AttackLength = 1

	for range seconds {
		clock.Advance(time.Second)
		gen.Step()
		store.Tick()
	}

	server := httptest.NewServer(feed.NewRouter(store, testLogger()))
	t.Cleanup(server.Close)
	return server, store, clock
}

func hasEvent(snap *collectors.Snapshot, prefix string) bool {
	for _, ev := range snap.LastEvents {
		if strings.HasPrefix(ev.Msg, prefix) {
			return true
		}
	}
	return false
}

// writeMinimalConfig writes a config.yaml pointing at url and returns its path.
func writeMinimalConfig(t *testing.T, dir, url string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`dashboard:
  url: %q
  poll_interval: "1s"
  request_timeout: "2s"
chart:
  device_pixel_ratio: 2
breaker:
  enabled: true
log:
  file: %q
cache:
  dir: %q
display:
  theme: monitoring
  timezone: UTC
`, url, filepath.Join(dir, "sdn-pulse.log"), filepath.Join(dir, "cache"))
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return cfgPath
}

func loadTestConfig(t *testing.T, url string) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig(writeMinimalConfig(t, t.TempDir(), url))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

// TestIntegration_FullPipeline tests the complete pipeline:
// feed -> HTTP -> client -> breaker -> loop -> buffer -> rendered frame.
func TestIntegration_FullPipeline(t *testing.T) {
	server, store, _ := feedServer(t, 12)
	cfg := loadTestConfig(t, server.URL+feed.DashboardPath)

	loop, breaker := buildLoop(cfg, testLogger())
	if breaker == nil {
		t.Fatal("expected the configured breaker to be wired")
	}

	rep := loop.Tick(context.Background())
	if !rep.Applied() {
		t.Fatalf("tick state = %v (%v)", rep.State, rep.Err)
	}
	if got := loop.Buffer().Len(); got != 12 {
		t.Errorf("buffered points = %d, want 12", got)
	}

	want := store.Snapshot()
	if got := loop.Latest().Counters; got != want.Counters {
		t.Errorf("counters = %+v, want %+v", got, want.Counters)
	}
	if want.Counters.DDoSFlagsTotal != 1 {
		t.Errorf("expected one flood to be flagged, got %d", want.Counters.DDoSFlagsTotal)
	}
	if !hasEvent(loop.Latest(), "BLOCK: 10.0.0.3") {
		t.Error("expected the block event to reach the client")
	}

	opts := tuiOptions(context.Background(), cfg, terminal.Geometry{CellWidth: 8, CellHeight: 16, DPR: 2}, testLogger())
	frame := tui.StaticFrame(loop, opts, 100, 40)
	// Every event the feed logs names a host address.
	for _, s := range []string{"SDN Pulse", "Status: OK (fetch succeeded)", "Recent events", "10.0.0."} {
		if !strings.Contains(frame, s) {
			t.Errorf("expected frame to contain %q", s)
		}
	}
}

// TestIntegration_WindowFollowsServer checks that each poll replaces the
// buffered window with the server's latest one.
func TestIntegration_WindowFollowsServer(t *testing.T) {
	server, store, clock := feedServer(t, 3)
	cfg := loadTestConfig(t, server.URL+feed.DashboardPath)
	loop, _ := buildLoop(cfg, testLogger())

	if rep := loop.Tick(context.Background()); !rep.Applied() {
		t.Fatalf("first tick state = %v", rep.State)
	}
	first := loop.Fingerprint()

	clock.Advance(time.Second)
	store.IncFlow()
	store.Tick()

	if rep := loop.Tick(context.Background()); !rep.Applied() {
		t.Fatalf("second tick state = %v", rep.State)
	}
	if loop.Buffer().Len() != 4 {
		t.Errorf("buffered points = %d, want 4", loop.Buffer().Len())
	}
	if loop.Fingerprint() == first {
		t.Error("expected the fingerprint to change with the window")
	}
}

// TestIntegration_EndpointDown checks the status text and the cache fallback
// used by one-shot renders.
func TestIntegration_EndpointDown(t *testing.T) {
	server, _, _ := feedServer(t, 5)
	cfg := loadTestConfig(t, server.URL+feed.DashboardPath)

	// Populate the cache through the headless poller.
	loop, breaker := buildLoop(cfg, testLogger())
	store, err := cache.NewStore(cfg.Cache.Dir, testLogger())
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	d := newDaemon(loop, breaker, store, cfg.Dashboard.URL, cfg.Dashboard.Interval(), testLogger())
	d.record(loop.Tick(context.Background()))

	server.Close()

	fresh, _ := buildLoop(cfg, testLogger())
	rep := fresh.Tick(context.Background())
	if rep.State != poll.StateError || rep.Status != poll.StatusError {
		t.Fatalf("tick against a closed server = %v %q", rep.State, rep.Status)
	}
	if !primeFromCache(fresh, cfg, testLogger()) {
		t.Fatal("expected the cached snapshot to be applied")
	}
	if fresh.Buffer().Len() != 5 {
		t.Errorf("buffered points = %d, want 5", fresh.Buffer().Len())
	}
}

// TestIntegration_ConfigDefaultsWork checks that a default config produces a
// working pipeline against a live feed.
func TestIntegration_ConfigDefaultsWork(t *testing.T) {
	server, _, _ := feedServer(t, 2)
	cfg := config.DefaultConfig()
	cfg.Dashboard.URL = server.URL + feed.DashboardPath
	cfg.Cache.Dir = t.TempDir()
	cfg.Log.File = filepath.Join(t.TempDir(), "sdn-pulse.log")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	logger, closer, err := setupLogger(cfg.Log, true)
	if err != nil {
		t.Fatalf("setupLogger: %v", err)
	}
	defer closer.Close()

	loop, _ := buildLoop(cfg, logger)
	if rep := loop.Tick(context.Background()); !rep.Applied() {
		t.Errorf("tick state = %v (%v)", rep.State, rep.Err)
	}
	if r := newRenderer(cfg); r.Pad != 28 || r.MinRange != 6 {
		t.Errorf("renderer = %+v", r)
	}
	if _, err := os.Stat(cfg.Log.File); err != nil {
		t.Errorf("expected log file: %v", err)
	}
}

// TestIntegration_DefaultsFetchEveryTick checks that a run of failures never
// stops the default pipeline from fetching, so the first tick after the
// controller recovers shows fresh data.
func TestIntegration_DefaultsFetchEveryTick(t *testing.T) {
	_, store, _ := feedServer(t, 3)
	router := feed.NewRouter(store, testLogger())

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 8 {
			http.Error(w, "restarting", http.StatusServiceUnavailable)
			return
		}
		router.ServeHTTP(w, r)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Dashboard.URL = server.URL + feed.DashboardPath
	loop, breaker := buildLoop(cfg, testLogger())
	if breaker != nil {
		t.Fatal("expected no breaker by default")
	}

	for i := 1; i <= 8; i++ {
		if rep := loop.Tick(context.Background()); rep.State != poll.StateError {
			t.Fatalf("tick %d state = %v, want error", i, rep.State)
		}
	}
	if rep := loop.Tick(context.Background()); !rep.Applied() {
		t.Fatalf("tick after recovery state = %v (%v)", rep.State, rep.Err)
	}
	if got := calls.Load(); got != 9 {
		t.Errorf("fetches = %d, want one per tick (9)", got)
	}
}
