// Package config provides configuration parsing for sdn-pulse.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the sdn-pulse configuration.
type Config struct {
	// Dashboard holds the snapshot endpoint and polling settings.
	Dashboard DashboardConfig `yaml:"dashboard"`

	// Chart holds chart geometry and density settings.
	Chart ChartConfig `yaml:"chart"`

	// Breaker holds circuit breaker settings for the fetcher.
	Breaker BreakerConfig `yaml:"breaker"`

	// Log holds log output settings.
	Log LogConfig `yaml:"log"`

	// Display holds TUI rendering settings.
	Display DisplayConfig `yaml:"display"`

	// Feed holds settings for the demo feed server.
	Feed FeedConfig `yaml:"feed"`

	// Cache holds the headless poller's snapshot cache settings.
	Cache CacheConfig `yaml:"cache"`
}

// DashboardConfig holds the snapshot endpoint and polling settings.
type DashboardConfig struct {
	// URL is the controller's dashboard JSON endpoint.
	URL string `yaml:"url"`
	// PollInterval is a duration string (e.g. "1s") between fetches.
	PollInterval string `yaml:"poll_interval"`
	// RequestTimeout is a duration string bounding each fetch.
	RequestTimeout string `yaml:"request_timeout"`
	// MaxPoints is the number of samples kept in the rolling window.
	MaxPoints int `yaml:"max_points"`
	// MaxEvents caps the recent-events table.
	MaxEvents int `yaml:"max_events"`
	// MinRange is the smallest vertical span of the chart's value axis.
	MinRange float64 `yaml:"min_range"`
}

// ChartConfig holds chart geometry and density settings.
type ChartConfig struct {
	// Pad is the inset of the plot area, in CSS pixels.
	Pad float64 `yaml:"pad"`
	// LineWidth is the series stroke width, in CSS pixels.
	LineWidth float64 `yaml:"line_width"`
	// DevicePixelRatio forces the density factor. 0 detects it from the
	// terminal.
	DevicePixelRatio float64 `yaml:"device_pixel_ratio"`
	// CellWidthPx and CellHeightPx are the CSS size of one terminal cell.
	CellWidthPx  float64 `yaml:"cell_width_px"`
	CellHeightPx float64 `yaml:"cell_height_px"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	// Enabled wraps the fetcher in a circuit breaker. While the circuit is
	// open, ticks report the open state without fetching, so it is off by
	// default.
	Enabled bool `yaml:"enabled"`
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int `yaml:"max_failures"`
	// ResetTimeout is a duration string for the first open period.
	ResetTimeout string `yaml:"reset_timeout"`
	// MaxResetTimeout is a duration string capping the exponential backoff.
	MaxResetTimeout string `yaml:"max_reset_timeout"`
	// BackoffMultiplier grows the open period on every re-open.
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// LogConfig holds log output settings.
type LogConfig struct {
	// File is the path for log output. The terminal belongs to the UI.
	File string `yaml:"file"`
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
}

// DisplayConfig holds TUI rendering settings.
type DisplayConfig struct {
	// Theme selects the display theme: "monitoring", "minimal", or "contrast".
	Theme string `yaml:"theme"`
	// Timezone is an IANA zone name for timestamps. Empty means local time.
	Timezone string `yaml:"timezone"`
}

// FeedConfig holds settings for the demo feed server.
type FeedConfig struct {
	// Listen is the address the demo feed binds to.
	Listen string `yaml:"listen"`
	// Tick is a duration string between synthetic samples.
	Tick string `yaml:"tick"`
}

// CacheConfig holds the headless poller's snapshot cache settings.
type CacheConfig struct {
	// Dir holds the cached snapshot, the PID file and the health file.
	Dir string `yaml:"dir"`
	// TTL is a duration string after which a cached snapshot is stale.
	TTL string `yaml:"ttl"`
}

var validThemes = map[string]bool{"monitoring": true, "minimal": true, "contrast": true}

var validLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Dashboard: DashboardConfig{
			URL:            "http://127.0.0.1:8080/api/dashboard",
			PollInterval:   "1s",
			RequestTimeout: "5s",
			MaxPoints:      120,
			MaxEvents:      30,
			MinRange:       6,
		},
		Chart: ChartConfig{
			Pad:              28,
			LineWidth:        2.2,
			DevicePixelRatio: 0,
			CellWidthPx:      8,
			CellHeightPx:     16,
		},
		Breaker: BreakerConfig{
			Enabled:           false,
			MaxFailures:       5,
			ResetTimeout:      "5s",
			MaxResetTimeout:   "1m",
			BackoffMultiplier: 2.0,
		},
		Log: LogConfig{
			File:  filepath.Join(home, ".cache", "sdn-pulse", "sdn-pulse.log"),
			Level: "info",
		},
		Display: DisplayConfig{
			Theme: "monitoring",
		},
		Feed: FeedConfig{
			Listen: "127.0.0.1:8080",
			Tick:   "1s",
		},
		Cache: CacheConfig{
			Dir: filepath.Join(home, ".cache", "sdn-pulse"),
			TTL: "1m",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "sdn-pulse", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sdn-pulse", "config.yaml")
}

// LoadConfig loads configuration from a YAML file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return config, nil
}

// Validate checks the configuration for required fields and logical consistency.
func (c *Config) Validate() error {
	// Dashboard validation
	if c.Dashboard.URL == "" {
		return fmt.Errorf("dashboard.url is required")
	}
	u, err := url.Parse(c.Dashboard.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("dashboard.url must be an absolute http(s) URL, got %q", c.Dashboard.URL)
	}
	if err := positiveDuration("dashboard.poll_interval", c.Dashboard.PollInterval); err != nil {
		return err
	}
	if err := positiveDuration("dashboard.request_timeout", c.Dashboard.RequestTimeout); err != nil {
		return err
	}
	if c.Dashboard.MaxPoints < 2 {
		return fmt.Errorf("dashboard.max_points must be at least 2, got %d", c.Dashboard.MaxPoints)
	}
	if c.Dashboard.MaxEvents < 1 {
		return fmt.Errorf("dashboard.max_events must be positive, got %d", c.Dashboard.MaxEvents)
	}
	if c.Dashboard.MinRange < 1 {
		return fmt.Errorf("dashboard.min_range must be at least 1, got %v", c.Dashboard.MinRange)
	}

	// Chart validation
	if c.Chart.Pad < 0 {
		return fmt.Errorf("chart.pad must be non-negative, got %v", c.Chart.Pad)
	}
	if c.Chart.LineWidth <= 0 {
		return fmt.Errorf("chart.line_width must be positive, got %v", c.Chart.LineWidth)
	}
	if c.Chart.DevicePixelRatio < 0 || c.Chart.DevicePixelRatio > 4 {
		return fmt.Errorf("chart.device_pixel_ratio must be 0 (auto) or in (0, 4], got %v", c.Chart.DevicePixelRatio)
	}
	if c.Chart.CellWidthPx <= 0 || c.Chart.CellHeightPx <= 0 {
		return fmt.Errorf("chart.cell_width_px and chart.cell_height_px must be positive")
	}

	// Breaker validation
	if c.Breaker.Enabled {
		if c.Breaker.MaxFailures < 1 {
			return fmt.Errorf("breaker.max_failures must be positive, got %d", c.Breaker.MaxFailures)
		}
		if err := positiveDuration("breaker.reset_timeout", c.Breaker.ResetTimeout); err != nil {
			return err
		}
		if err := positiveDuration("breaker.max_reset_timeout", c.Breaker.MaxResetTimeout); err != nil {
			return err
		}
		if c.Breaker.BackoffMultiplier < 1 {
			return fmt.Errorf("breaker.backoff_multiplier must be at least 1, got %v", c.Breaker.BackoffMultiplier)
		}
	}

	// Log validation
	if c.Log.File == "" {
		return fmt.Errorf("log.file is required")
	}
	if _, ok := validLevels[strings.ToLower(c.Log.Level)]; !ok {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Log.Level)
	}

	// Display validation
	if !validThemes[c.Display.Theme] {
		return fmt.Errorf("display.theme must be 'monitoring', 'minimal', or 'contrast', got %q", c.Display.Theme)
	}
	if c.Display.Timezone != "" {
		if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
			return fmt.Errorf("display.timezone: %w", err)
		}
	}

	// Feed validation
	if err := positiveDuration("feed.tick", c.Feed.Tick); err != nil {
		return err
	}

	// Cache validation
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	if err := positiveDuration("cache.ttl", c.Cache.TTL); err != nil {
		return err
	}

	return nil
}

// positiveDuration checks that s parses as a duration greater than zero.
func positiveDuration(field, s string) error {
	if s == "" {
		return fmt.Errorf("%s is required", field)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, s, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, s)
	}
	return nil
}

// duration parses s, returning fallback when it is empty or invalid.
func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Interval returns the parsed poll interval.
func (d DashboardConfig) Interval() time.Duration {
	return duration(d.PollInterval, time.Second)
}

// Timeout returns the parsed request timeout.
func (d DashboardConfig) Timeout() time.Duration {
	return duration(d.RequestTimeout, 5*time.Second)
}

// Reset returns the parsed initial open period.
func (b BreakerConfig) Reset() time.Duration {
	return duration(b.ResetTimeout, 5*time.Second)
}

// MaxReset returns the parsed backoff cap.
func (b BreakerConfig) MaxReset() time.Duration {
	return duration(b.MaxResetTimeout, time.Minute)
}

// SlogLevel returns the configured level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	if lvl, ok := validLevels[strings.ToLower(l.Level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Location returns the display time zone, or time.Local.
func (d DisplayConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// TickInterval returns the parsed demo feed tick.
func (f FeedConfig) TickInterval() time.Duration {
	return duration(f.Tick, time.Second)
}

// TTLDuration returns the parsed cache TTL.
func (c CacheConfig) TTLDuration() time.Duration {
	return duration(c.TTL, time.Minute)
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
