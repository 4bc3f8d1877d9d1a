package dashboard

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
)

// Compile-time check: Collector satisfies the collectors.Collector interface.
var _ collectors.Collector = (*Collector)(nil)

// DefaultInterval is the poll cadence of the dashboard.
const DefaultInterval = time.Second

// Collector adapts a Client to the collectors.Collector interface.
type Collector struct {
	client   *Client
	interval time.Duration
}

// NewCollector wraps client. A non-positive interval uses DefaultInterval.
func NewCollector(client *Client, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Collector{client: client, interval: interval}
}

// Name returns "dashboard".
func (c *Collector) Name() string {
	return "dashboard"
}

// Description names the polled endpoint.
func (c *Collector) Description() string {
	return fmt.Sprintf("controller dashboard snapshot (%s)", c.client.URL())
}

// Interval returns the poll interval.
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// Collect fetches one snapshot.
func (c *Collector) Collect(ctx context.Context) (*collectors.CollectResult, error) {
	start := time.Now()
	snap, err := c.client.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return &collectors.CollectResult{
		Collector: c.Name(),
		Timestamp: time.Now(),
		Snapshot:  snap,
		Latency:   time.Since(start),
	}, nil
}
