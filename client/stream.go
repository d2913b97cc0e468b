// Package client implements the consumer side of the deployment event
// stream: a reconnecting SSE reader that resumes from the last seen
// sequence and delivers each event exactly once.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ConnState is the connection lifecycle reported to state listeners
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateReconnecting ConnState = "reconnecting"
	StateDisconnected ConnState = "disconnected"
)

const (
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultMaxAttempts    = 8
)

// Event is one stream event delivered to the consumer
type Event struct {
	ID   int64
	Name string
	Data json.RawMessage
}

// StreamClient consumes a deployment's live event stream. On connection
// loss it reconnects with exponentially growing delays, resuming from the
// last delivered event so the consumer never sees a duplicate or a gap.
type StreamClient struct {
	baseURL    string
	token      string
	httpClient *http.Client

	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxAttempts    int

	// OnStateChange, when set, observes connection lifecycle transitions
	OnStateChange func(ConnState)
}

// Option configures a StreamClient
type Option func(*StreamClient)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *StreamClient) { c.httpClient = hc }
}

// WithBackoff overrides the reconnect delays and attempt budget
func WithBackoff(initial, max time.Duration, attempts int) Option {
	return func(c *StreamClient) {
		c.initialBackoff = initial
		c.maxBackoff = max
		c.maxAttempts = attempts
	}
}

// NewStreamClient creates a stream client for the given API base URL.
// The token authenticates as a Bearer credential.
func NewStreamClient(baseURL, token string, opts ...Option) *StreamClient {
	c := &StreamClient{
		baseURL:        baseURL,
		token:          token,
		httpClient:     &http.Client{}, // no timeout: the stream is long-lived
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		maxAttempts:    defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream attaches to a deployment's event stream and delivers events on
// the returned channel. The channel closes after the complete event, when
// ctx is cancelled, or once the reconnect budget is spent.
func (c *StreamClient) Stream(ctx context.Context, deploymentID string) <-chan Event {
	out := make(chan Event, 16)
	go c.run(ctx, deploymentID, out)
	return out
}

func (c *StreamClient) run(ctx context.Context, deploymentID string, out chan<- Event) {
	defer close(out)
	defer c.setState(StateDisconnected)

	lastID := int64(-1)
	backoff := c.initialBackoff
	attempts := 0
	c.setState(StateConnecting)

	for {
		complete, _ := c.consumeOnce(ctx, deploymentID, &lastID, out)
		if complete || ctx.Err() != nil {
			return
		}
		// Any disconnect short of the complete event spends the retry
		// budget, clean EOF included. A server that keeps dropping the
		// stream must not turn the client into a reconnect loop.
		attempts++
		if attempts > c.maxAttempts {
			return
		}
		c.setState(StateReconnecting)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

// consumeOnce holds one connection open and forwards its events.
// It returns complete=true once the terminal event has been delivered.
func (c *StreamClient) consumeOnce(ctx context.Context, deploymentID string, lastID *int64, out chan<- Event) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/deployments/%s/stream", c.baseURL, deploymentID), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if *lastID >= 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatInt(*lastID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("stream request failed: %s", resp.Status)
	}
	c.setState(StateConnected)

	scanner := newSSEScanner(resp.Body)
	for scanner.Next() {
		frame := scanner.Event()

		// Replayed frames below the cursor were already delivered
		if frame.HasID && frame.ID <= *lastID {
			continue
		}
		if frame.HasID {
			*lastID = frame.ID
		}

		select {
		case out <- Event{ID: frame.ID, Name: frame.Event, Data: json.RawMessage(frame.Data)}:
		case <-ctx.Done():
			return false, ctx.Err()
		}

		if frame.Event == "complete" {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func (c *StreamClient) setState(state ConnState) {
	if c.OnStateChange != nil {
		c.OnStateChange(state)
	}
}
