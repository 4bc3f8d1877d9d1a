// Command demo-feed serves a synthetic controller dashboard feed for
// sdn-pulse. It generates background traffic between four hosts, applies a
// static ACL and a per-source new-flow rate limit, and periodically floods
// from one attacker so every counter and event type moves.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/tinyland/lab/sdn-pulse/config"
	"gitlab.com/tinyland/lab/sdn-pulse/internal/feed"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file")
	listen := flag.String("listen", "", "Listen address (overrides feed.listen)")
	seed := flag.Uint64("seed", 0, "Traffic seed (0 uses the current time)")
	verbose := flag.Bool("verbose", false, "Log every request")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Feed.Listen = *listen
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	store := feed.NewStore(feed.DefaultMaxPoints, feed.DefaultMaxEvents, nil)
	policy := feed.NewPolicy(store, nil, nil)
	gen := feed.NewGenerator(store, policy, *seed, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := gen.Run(ctx, cfg.Feed.TickInterval()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("generator stopped", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Feed.Listen,
		Handler:           feed.NewRouter(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("demo feed starting", "addr", server.Addr, "path", feed.DashboardPath, "seed", *seed)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "addr", server.Addr, "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("demo feed shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
}
