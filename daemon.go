package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gitlab.com/tinyland/lab/sdn-pulse/cache"
	"gitlab.com/tinyland/lab/sdn-pulse/collectors/retry"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

// daemon is the headless poller: it runs the poll loop without a terminal,
// caches every good snapshot and records a health entry per tick.
type daemon struct {
	loop     *poll.Loop
	breaker  *retry.CircuitBreaker
	store    *cache.Store
	url      string
	interval time.Duration
	logger   *slog.Logger
	pidFile  string
	lastOK   time.Time
}

// newDaemon creates a headless poller writing to store. breaker may be nil.
func newDaemon(loop *poll.Loop, breaker *retry.CircuitBreaker, store *cache.Store, url string, interval time.Duration, logger *slog.Logger) *daemon {
	return &daemon{
		loop:     loop,
		breaker:  breaker,
		store:    store,
		url:      url,
		interval: interval,
		logger:   logger,
		pidFile:  filepath.Join(store.Dir(), "sdn-pulse.pid"),
	}
}

// writePIDFile writes the current process PID to {Dir}/sdn-pulse.pid.
func (d *daemon) writePIDFile() error {
	if err := os.MkdirAll(filepath.Dir(d.pidFile), 0o755); err != nil {
		return fmt.Errorf("create PID file directory: %w", err)
	}
	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	d.logger.Info("wrote PID file", "path", d.pidFile, "pid", pid)
	return nil
}

// removePIDFile removes the PID file on shutdown.
func (d *daemon) removePIDFile() {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		d.logger.Error("failed to remove PID file", "path", d.pidFile, "error", err)
		return
	}
	d.logger.Info("removed PID file", "path", d.pidFile)
}

// isRunning reports whether another poller holds the PID file. Stale or
// corrupt PID files are removed.
func (d *daemon) isRunning() (bool, int) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		d.logger.Warn("corrupt PID file, removing", "path", d.pidFile, "content", string(data))
		os.Remove(d.pidFile)
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(d.pidFile)
		return false, 0
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		d.logger.Warn("stale PID file, removing", "path", d.pidFile, "pid", pid)
		os.Remove(d.pidFile)
		return false, 0
	}
	return true, pid
}

// run polls until ctx is cancelled.
func (d *daemon) run(ctx context.Context) error {
	if running, pid := d.isRunning(); running {
		return fmt.Errorf("poller already running (PID %d)", pid)
	}
	if err := d.writePIDFile(); err != nil {
		return err
	}
	defer d.removePIDFile()

	d.logger.Info("headless poller started", "url", d.url, "interval", d.interval)
	err := d.loop.Run(ctx, d.interval, d.record)
	d.shutdown()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// record caches a good snapshot and writes the health entry for one tick.
func (d *daemon) record(rep poll.Report) {
	if rep.Applied() {
		d.lastOK = rep.At
		if err := d.store.SaveSnapshot(rep.Snapshot); err != nil {
			d.logger.Error("cache write failed", "error", err)
		}
	}

	var breaker string
	if d.breaker != nil {
		breaker = d.breaker.State().String()
	}
	if err := writeHealthFile(d.store, healthFromReport(rep, d.url, d.lastOK, breaker)); err != nil {
		d.logger.Error("health write failed", "error", err)
	}

	d.logger.Debug("tick committed",
		"seq", rep.Seq,
		"state", rep.State.String(),
		"latency", rep.Latency,
	)
}

// shutdown logs the final cache state.
func (d *daemon) shutdown() {
	d.logger.Info("headless poller shutting down")
	meta, err := d.store.Meta()
	if err != nil {
		return
	}
	for key, ts := range meta.LastUpdate {
		d.logger.Info("cache entry at shutdown",
			"key", key,
			"age", time.Since(ts).Round(time.Millisecond).String(),
			"bytes", meta.Sizes[key],
		)
	}
}
