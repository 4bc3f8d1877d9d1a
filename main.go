// sdn-pulse is a live terminal dashboard for an SDN security controller.
//
// It polls the controller's dashboard endpoint once a second and shows the
// totals, a four-series per-second chart with hover inspection, and the
// most recent controller events.
//
// Usage:
//
//	sdn-pulse [flags]
//
// Flags:
//
//	-config string     Path to configuration file (default: ~/.config/sdn-pulse/config.yaml)
//	-url string        Dashboard endpoint override
//	-interval string   Poll interval override (e.g. 1s)
//	-theme string      Theme override (monitoring|minimal|contrast)
//	-once              Poll once, print a single frame and exit
//	-json              With -once, print the snapshot as JSON; with -health, print JSON
//	-headless          Poll without a UI, caching snapshots and health
//	-health            Check the headless poller's health
//	-diagnose          Check config, terminal, endpoint and cache
//	-write-config      Write the effective config to -config and exit
//	-keys              Print keybindings and exit
//	-verbose           Enable debug logging
//	-version           Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	jsoniter "github.com/json-iterator/go"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/sdn-pulse/cache"
	"gitlab.com/tinyland/lab/sdn-pulse/config"
	"gitlab.com/tinyland/lab/sdn-pulse/display/color"
	"gitlab.com/tinyland/lab/sdn-pulse/display/terminal"
	"gitlab.com/tinyland/lab/sdn-pulse/display/tui"
	"gitlab.com/tinyland/lab/sdn-pulse/poll"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	var (
		configPath   = flag.String("config", "", "Path to configuration file (default: ~/.config/sdn-pulse/config.yaml)")
		urlFlag      = flag.String("url", "", "Dashboard endpoint override")
		intervalFlag = flag.String("interval", "", "Poll interval override (e.g. 1s)")
		themeFlag    = flag.String("theme", "", "Theme override (monitoring|minimal|contrast)")
		once         = flag.Bool("once", false, "Poll once, print a single frame and exit")
		jsonOut      = flag.Bool("json", false, "JSON output (with -once or -health)")
		headless     = flag.Bool("headless", false, "Poll without a UI, caching snapshots and health")
		runHealth    = flag.Bool("health", false, "Check the headless poller's health")
		runDiagnose  = flag.Bool("diagnose", false, "Check config, terminal, endpoint and cache")
		writeConfig  = flag.Bool("write-config", false, "Write the effective config (defaults plus overrides) to -config and exit")
		showKeys     = flag.Bool("keys", false, "Print keybindings and exit")
		keysCategory = flag.String("keys-category", "", "Filter -keys by category (view|data|system)")
		keysFormat   = flag.String("keys-format", "table", "Output format for -keys (table|json)")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
		showVersion  = flag.Bool("version", false, "Print version and exit")
		termWidth    = flag.Int("term-width", 0, "Terminal width override for -once (0 = auto-detect)")
		termHeight   = flag.Int("term-height", 0, "Terminal height override for -once (0 = auto-detect)")
	)
	flag.Parse()

	// ---------------------------------------------------------------
	// Commands that don't require config
	// ---------------------------------------------------------------

	if *showVersion {
		fmt.Printf("sdn-pulse %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	if *showKeys {
		os.Exit(runKeysCommand(os.Stdout, *keysCategory, *keysFormat))
	}

	// ---------------------------------------------------------------
	// Load configuration
	// ---------------------------------------------------------------

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg, *urlFlag, *intervalFlag, *themeFlag)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *runDiagnose {
		os.Exit(runDiagnostics(ctx, os.Stdout, cfg, path, measureGeometry(cfg)))
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig {
		os.Exit(runWriteConfig(os.Stdout, cfg, path))
	}

	// ---------------------------------------------------------------
	// Health check
	// ---------------------------------------------------------------

	if *runHealth {
		store, err := cache.NewStore(cfg.Cache.Dir, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cache: %v\n", err)
			os.Exit(1)
		}
		os.Exit(checkHealth(os.Stdout, store, cfg.Dashboard.Interval(), *jsonOut, time.Now()))
	}

	logger, logFile, err := setupLogger(cfg.Log, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger.Info("starting sdn-pulse", "version", version, "url", cfg.Dashboard.URL, "interval", cfg.Dashboard.Interval())
	loop, breaker := buildLoop(cfg, logger)

	// ---------------------------------------------------------------
	// Headless mode
	// ---------------------------------------------------------------

	if *headless {
		store, err := cache.NewStore(cfg.Cache.Dir, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cache: %v\n", err)
			os.Exit(1)
		}
		d := newDaemon(loop, breaker, store, cfg.Dashboard.URL, cfg.Dashboard.Interval(), logger)
		fmt.Fprintf(os.Stderr, "sdn-pulse %s polling %s (log: %s)\n", version, cfg.Dashboard.URL, cfg.Log.File)
		if err := d.run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "headless poller: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// ---------------------------------------------------------------
	// One-shot mode
	// ---------------------------------------------------------------

	if *once {
		rep := loop.Tick(ctx)
		if !rep.Applied() && primeFromCache(loop, cfg, logger) {
			fmt.Fprintf(os.Stderr, "sdn-pulse: %s; showing cached snapshot\n", rep.Status)
		}

		if *jsonOut {
			data, err := json.MarshalIndent(loop.Latest(), "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "encode snapshot: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
			os.Exit(0)
		}

		width, height := *termWidth, *termHeight
		if width <= 0 || height <= 0 {
			w, h := terminal.DetectSize()
			if width <= 0 {
				width = w
			}
			if height <= 0 {
				height = h
			}
		}
		colored := color.Apply(os.Stdout)
		frame := tui.StaticFrame(loop, tuiOptions(ctx, cfg, measureGeometry(cfg), logger), width, height)
		if !colored {
			frame = color.Plain(frame)
		}
		fmt.Println(frame)
		os.Exit(0)
	}

	// ---------------------------------------------------------------
	// TUI mode
	// ---------------------------------------------------------------

	os.Exit(runTUI(ctx, cfg, loop, logger))
}

// runTUI runs the interactive dashboard until the user quits.
func runTUI(ctx context.Context, cfg *config.Config, loop *poll.Loop, logger *slog.Logger) (code int) {
	defer func() {
		if r := recover(); r != nil {
			// Attempt to restore terminal from alt-screen before printing error.
			fmt.Print("\x1b[?1049l\x1b[?25h")
			fmt.Fprintf(os.Stderr, "sdn-pulse: TUI panic: %v\n", r)
			logger.Error("TUI panic", "panic", r)
			code = 1
		}
	}()

	zm := zone.New()
	defer zm.Close()

	opts := tuiOptions(ctx, cfg, measureGeometry(cfg), logger)
	opts.Zones = zm
	model := tui.NewModel(loop, opts)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		logger.Error("TUI error", "error", err)
		return 1
	}
	logger.Info("sdn-pulse exiting")
	return 0
}

// applyOverrides applies command-line overrides on top of the loaded config.
func applyOverrides(cfg *config.Config, url, interval, theme string) {
	if url != "" {
		cfg.Dashboard.URL = url
	}
	if interval != "" {
		cfg.Dashboard.PollInterval = interval
	}
	if theme != "" {
		cfg.Display.Theme = theme
	}
}

// runWriteConfig saves cfg to path so a first run can start from an editable
// file. It returns the process exit code.
func runWriteConfig(w io.Writer, cfg *config.Config, path string) int {
	if err := config.SaveConfig(cfg, path); err != nil {
		fmt.Fprintf(w, "write config: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return 0
}
