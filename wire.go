package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gitlab.com/tinyland/lab/sdn-pulse/cache"
	"gitlab.com/tinyland/lab/sdn-pulse/chart"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/dashboard"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/retry"
	"gitlab.com/tinyland/lab/sdn-pulse/config"
	"gitlab.com/tinyland/lab/sdn-pulse/display/terminal"
	"gitlab.com/tinyland/lab/sdn-pulse/display/tui"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
	"gitlab.com/tinyland/lab/sdn-pulse/series"
)

// setupLogger opens the configured log file. The terminal belongs to the UI,
// so nothing is ever logged to stdout or stderr. verbose forces debug level.
func setupLogger(cfg config.LogConfig, verbose bool) (*slog.Logger, io.Closer, error) {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f, nil
}

// buildCollector wires the HTTP client into a collector, wrapped in a
// circuit breaker when enabled. The breaker is nil when disabled.
func buildCollector(cfg *config.Config, logger *slog.Logger) (collectors.Collector, *retry.CircuitBreaker) {
	client := dashboard.NewClient(cfg.Dashboard.URL, cfg.Dashboard.Timeout(), logger)
	var src collectors.Collector = dashboard.NewCollector(client, cfg.Dashboard.Interval())

	if !cfg.Breaker.Enabled {
		return src, nil
	}
	cb := retry.NewCircuitBreaker(src, retry.Config{
		MaxFailures:       cfg.Breaker.MaxFailures,
		ResetTimeout:      cfg.Breaker.Reset(),
		MaxResetTimeout:   cfg.Breaker.MaxReset(),
		BackoffMultiplier: cfg.Breaker.BackoffMultiplier,
		Logger:            logger,
	})
	return cb, cb
}

// buildLoop returns the poll loop for the configured endpoint.
func buildLoop(cfg *config.Config, logger *slog.Logger) (*poll.Loop, *retry.CircuitBreaker) {
	src, cb := buildCollector(cfg, logger)
	return poll.New(src, series.New(cfg.Dashboard.MaxPoints), logger), cb
}

// newRenderer returns a chart renderer configured from the chart section.
func newRenderer(cfg *config.Config) *chart.Renderer {
	r := chart.NewRenderer()
	r.Pad = cfg.Chart.Pad
	r.LineWidth = cfg.Chart.LineWidth
	r.MinRange = cfg.Dashboard.MinRange
	return r
}

// measureGeometry measures the terminal on stdout.
func measureGeometry(cfg *config.Config) terminal.Geometry {
	return terminal.Measure(cfg.Chart.CellWidthPx, cfg.Chart.CellHeightPx, cfg.Chart.DevicePixelRatio)
}

// tuiOptions collects the dashboard model options from the configuration.
func tuiOptions(ctx context.Context, cfg *config.Config, geom terminal.Geometry, logger *slog.Logger) tui.Options {
	return tui.Options{
		Context:   ctx,
		Interval:  cfg.Dashboard.Interval(),
		Geometry:  geom,
		Measure:   func() terminal.Geometry { return measureGeometry(cfg) },
		Renderer:  newRenderer(cfg),
		Theme:     cfg.Display.Theme,
		MaxEvents: cfg.Dashboard.MaxEvents,
		Location:  cfg.Display.Location(),
		Logger:    logger,
	}
}

// primeFromCache commits a cached snapshot into the loop so a one-shot render
// has something to show when the live fetch failed. It reports whether a
// snapshot was applied.
func primeFromCache(loop *poll.Loop, cfg *config.Config, logger *slog.Logger) bool {
	store, err := cache.NewStore(cfg.Cache.Dir, logger)
	if err != nil {
		return false
	}
	snap, fresh, err := store.LoadSnapshot(cfg.Cache.TTLDuration())
	if err != nil || snap == nil {
		return false
	}
	if !fresh {
		logger.Info("using stale cached snapshot", "age", store.Age(cache.SnapshotKey))
	}
	rep := loop.Commit(poll.Outcome{Seq: loop.Next(), Snapshot: snap})
	return rep.Applied()
}
