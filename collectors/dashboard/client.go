// Package dashboard fetches snapshots from the SDN controller's dashboard API.
// One Fetch call is one poll tick: a single uncached GET, a bounded body read,
// and a lenient JSON decode.
package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"gitlab.com/tinyland/lab/sdn-pulse/collectors"
)

const (
	// DefaultURL is the controller's dashboard snapshot endpoint.
	DefaultURL = "http://127.0.0.1:8080/api/dashboard"

	// DefaultRequestTimeout bounds a single fetch, including the body read.
	DefaultRequestTimeout = 5 * time.Second

	// maxResponseBytes limits the response body size to prevent unbounded reads.
	maxResponseBytes = 4 << 20 // 4 MiB

	userAgent = "sdn-pulse/1.0"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client fetches dashboard snapshots over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given snapshot URL.
// A zero timeout uses DefaultRequestTimeout. If logger is nil, a no-op
// logger is used.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// URL returns the endpoint this client polls.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one fetch-and-decode cycle.
//
// It returns:
//   - (*Snapshot, nil) for a 2xx response with a JSON body
//   - (nil, nil) for a 2xx response whose body is empty, whitespace, or a
//     null/false/0/"" document
//   - (nil, *StatusError) for any non-2xx status
//   - (nil, *DecodeError) for a non-empty body that is not valid JSON
//   - (nil, error) wrapping the transport failure otherwise
func (c *Client) Fetch(ctx context.Context) (*collectors.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	// Read the body before looking at the status so the connection can be reused.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return decodeSnapshot(body)
}

// decodeSnapshot turns a response body into a Snapshot. An empty or
// whitespace-only body is the "no data yet" state and yields nil, as does a
// JSON document that is null, false, zero or an empty string. Any other valid
// JSON decodes leniently: wrongly typed fields fall back to zero values.
func decodeSnapshot(body []byte) (*collectors.Snapshot, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if !json.Valid(trimmed) {
		return nil, &DecodeError{Size: len(body), Err: errInvalidJSON}
	}
	if falsy(trimmed) {
		return nil, nil
	}

	var snap collectors.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, &DecodeError{Size: len(body), Err: err}
	}
	return &snap, nil
}

// falsy reports whether a valid JSON document is one of the scalar values
// that mean "nothing to show".
func falsy(doc []byte) bool {
	switch string(doc) {
	case "null", "false", `""`:
		return true
	}
	if c := doc[0]; c == '-' || (c >= '0' && c <= '9') {
		f, err := strconv.ParseFloat(string(doc), 64)
		return err == nil && f == 0
	}
	return false
}
