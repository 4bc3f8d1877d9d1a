// Package retry provides a circuit breaker that wraps a snapshot collector.
// When the dashboard API fails repeatedly, the breaker "opens" and poll ticks
// short-circuit with ErrCircuitOpen for an increasing interval instead of
// hammering an unavailable endpoint every second.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
)

// Compile-time check: CircuitBreaker satisfies the Collector interface.
var _ collectors.Collector = (*CircuitBreaker)(nil)

// ErrCircuitOpen is matched by errors.Is for every OpenError.
var ErrCircuitOpen = errors.New("circuit breaker open")

// OpenError is returned by Collect while the circuit is open.
type OpenError struct {
	Collector string
	Failures  int
	RetryIn   time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s (failures: %d, retry in %s)",
		e.Collector, e.Failures, e.RetryIn.Truncate(time.Second))
}

// Is reports ErrCircuitOpen as the sentinel for this error.
func (e *OpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation; fetches pass through.
	StateClosed State = iota
	// StateOpen means failures exceeded the threshold; fetches are skipped.
	StateOpen
	// StateHalfOpen lets one trial request test whether the endpoint recovered.
	StateHalfOpen
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the circuit breaker behavior.
type Config struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int
	// ResetTimeout is the initial wait before transitioning from Open to HalfOpen.
	ResetTimeout time.Duration
	// MaxResetTimeout caps the exponential backoff.
	MaxResetTimeout time.Duration
	// BackoffMultiplier is the factor by which the timeout grows on each re-open.
	BackoffMultiplier float64
	// Logger for circuit breaker events. Nil is safe (a discard logger is used).
	Logger *slog.Logger
	// Now is the clock. Nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns defaults tuned for a one-second poll: five straight
// failures open the circuit for 5s, doubling up to one minute.
func DefaultConfig() Config {
	return Config{
		MaxFailures:       5,
		ResetTimeout:      5 * time.Second,
		MaxResetTimeout:   1 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Stats holds circuit breaker statistics for external inspection.
type Stats struct {
	State            State
	ConsecutiveFails int
	TotalFailures    int
	TotalSuccesses   int
	LastFailure      time.Time
	LastSuccess      time.Time
	CurrentTimeout   time.Duration
	ConsecutiveSkips int
}

// CircuitBreaker wraps a collectors.Collector with failure tracking and
// automatic circuit opening/closing.
type CircuitBreaker struct {
	collector collectors.Collector
	config    Config
	logger    *slog.Logger
	now       func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	lastSuccess      time.Time
	currentTimeout   time.Duration
	totalFailures    int
	totalSuccesses   int
	consecutiveSkips int
}

// NewCircuitBreaker wraps a collector with circuit breaker logic.
func NewCircuitBreaker(c collectors.Collector, cfg Config) *CircuitBreaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 1
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	return &CircuitBreaker{
		collector:      c,
		config:         cfg,
		logger:         logger,
		now:            now,
		state:          StateClosed,
		currentTimeout: cfg.ResetTimeout,
	}
}

// Name delegates to the wrapped collector.
func (cb *CircuitBreaker) Name() string {
	return cb.collector.Name()
}

// Description delegates to the wrapped collector, appending the circuit state.
func (cb *CircuitBreaker) Description() string {
	return fmt.Sprintf("%s [circuit: %s]", cb.collector.Description(), cb.State())
}

// Interval delegates to the wrapped collector.
func (cb *CircuitBreaker) Interval() time.Duration {
	return cb.collector.Interval()
}

// Collect checks the circuit state and either runs the wrapped collector or
// returns an *OpenError without touching the network.
func (cb *CircuitBreaker) Collect(ctx context.Context) (*collectors.CollectResult, error) {
	cb.mu.Lock()

	switch cb.state {
	case StateClosed:
		cb.mu.Unlock()
		return cb.collectClosed(ctx)

	case StateOpen:
		elapsed := cb.now().Sub(cb.lastFailure)
		if elapsed < cb.currentTimeout {
			cb.consecutiveSkips++
			err := &OpenError{
				Collector: cb.collector.Name(),
				Failures:  cb.failures,
				RetryIn:   cb.currentTimeout - elapsed,
			}
			skips := cb.consecutiveSkips
			cb.mu.Unlock()

			cb.logger.Debug("circuit breaker open, skipping fetch",
				"collector", err.Collector,
				"failures", err.Failures,
				"retry_in", err.RetryIn,
				"skips", skips,
			)
			return nil, err
		}

		cb.state = StateHalfOpen
		cb.logger.Info("circuit breaker transitioning to half-open",
			"collector", cb.collector.Name(),
		)
		cb.mu.Unlock()
		return cb.collectHalfOpen(ctx)

	case StateHalfOpen:
		cb.mu.Unlock()
		return cb.collectHalfOpen(ctx)

	default:
		state := cb.state
		cb.mu.Unlock()
		return nil, fmt.Errorf("circuit breaker in unknown state: %d", state)
	}
}

func (cb *CircuitBreaker) collectClosed(ctx context.Context) (*collectors.CollectResult, error) {
	result, err := cb.collector.Collect(ctx)
	if err != nil {
		cb.recordFailure()
		return result, err
	}

	cb.recordSuccess()
	return result, nil
}

func (cb *CircuitBreaker) collectHalfOpen(ctx context.Context) (*collectors.CollectResult, error) {
	result, err := cb.collector.Collect(ctx)
	if err != nil {
		cb.mu.Lock()
		cb.failures++
		cb.totalFailures++
		cb.lastFailure = cb.now()

		cb.currentTimeout = time.Duration(float64(cb.currentTimeout) * cb.config.BackoffMultiplier)
		if cb.config.MaxResetTimeout > 0 && cb.currentTimeout > cb.config.MaxResetTimeout {
			cb.currentTimeout = cb.config.MaxResetTimeout
		}

		cb.state = StateOpen
		cb.logger.Warn("circuit breaker re-opened after half-open failure",
			"collector", cb.collector.Name(),
			"failures", cb.failures,
			"next_timeout", cb.currentTimeout,
			"error", err,
		)
		cb.mu.Unlock()
		return result, err
	}

	cb.mu.Lock()
	cb.state = StateClosed
	cb.failures = 0
	cb.consecutiveSkips = 0
	cb.totalSuccesses++
	cb.lastSuccess = cb.now()
	cb.currentTimeout = cb.config.ResetTimeout
	cb.logger.Info("circuit breaker closed after successful trial request",
		"collector", cb.collector.Name(),
	)
	cb.mu.Unlock()
	return result, nil
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.totalFailures++
	cb.lastFailure = cb.now()

	if cb.failures >= cb.config.MaxFailures {
		cb.state = StateOpen
		cb.currentTimeout = cb.config.ResetTimeout
		cb.logger.Warn("circuit breaker opened",
			"collector", cb.collector.Name(),
			"failures", cb.failures,
			"timeout", cb.currentTimeout,
		)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.consecutiveSkips = 0
	cb.totalSuccesses++
	cb.lastSuccess = cb.now()
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the circuit breaker statistics.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		State:            cb.state,
		ConsecutiveFails: cb.failures,
		TotalFailures:    cb.totalFailures,
		TotalSuccesses:   cb.totalSuccesses,
		LastFailure:      cb.lastFailure,
		LastSuccess:      cb.lastSuccess,
		CurrentTimeout:   cb.currentTimeout,
		ConsecutiveSkips: cb.consecutiveSkips,
	}
}

// Reset forces the circuit breaker back to the closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.consecutiveSkips = 0
	cb.currentTimeout = cb.config.ResetTimeout
	cb.logger.Info("circuit breaker manually reset",
		"collector", cb.collector.Name(),
	)
}
