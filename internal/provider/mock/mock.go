// Package mock provides a scriptable provider.Client for tests.
package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MadScientist85/Ai-Web-App/internal/provider"
)

// Client is a mock generation backend. It records every request it sees.
type Client struct {
	response     string
	staticErr    error
	probeErr     error
	responseFunc func(*provider.Request) (*provider.Response, error)
	tracker      *InFlight

	calls atomic.Int64
	mu    sync.Mutex
	reqs  []provider.Request
}

var _ provider.Client = (*Client)(nil)

type Option func(*Client)

// WithResponse sets the content returned on success.
func WithResponse(s string) Option {
	return func(c *Client) { c.response = s }
}

// WithError makes every call fail with err.
func WithError(err error) Option {
	return func(c *Client) { c.staticErr = err }
}

// WithProbeError makes only health probes (Request.Probe) fail with err.
func WithProbeError(err error) Option {
	return func(c *Client) { c.probeErr = err }
}

// WithResponseFunc sets a custom response function.
func WithResponseFunc(fn func(*provider.Request) (*provider.Response, error)) Option {
	return func(c *Client) { c.responseFunc = fn }
}

// WithInFlight shares a concurrency tracker between several mocks.
func WithInFlight(t *InFlight) Option {
	return func(c *Client) { c.tracker = t }
}

func New(opts ...Option) *Client {
	c := &Client{response: "Hello from mock provider"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if c.tracker != nil {
		c.tracker.enter()
		defer c.tracker.exit()
	}

	c.calls.Add(1)
	c.mu.Lock()
	cp := *req
	cp.Messages = append([]provider.Message(nil), req.Messages...)
	c.reqs = append(c.reqs, cp)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.probeErr != nil && req.Probe {
		return nil, c.probeErr
	}
	if c.staticErr != nil {
		return nil, c.staticErr
	}
	if c.responseFunc != nil {
		return c.responseFunc(req)
	}
	return &provider.Response{
		Content:      c.response,
		Model:        req.Model,
		InputTokens:  10,
		OutputTokens: 20,
	}, nil
}

// CallCount returns the number of calls made, probes included.
func (c *Client) CallCount() int64 { return c.calls.Load() }

// Requests returns copies of every request received, in order.
func (c *Client) Requests() []provider.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]provider.Request(nil), c.reqs...)
}

// InFlight tracks the high-water mark of concurrent calls across mocks.
type InFlight struct {
	current atomic.Int64
	max     atomic.Int64
}

func (t *InFlight) enter() {
	n := t.current.Add(1)
	for {
		m := t.max.Load()
		if n <= m || t.max.CompareAndSwap(m, n) {
			return
		}
	}
}

func (t *InFlight) exit() { t.current.Add(-1) }

// Max returns the highest number of simultaneous calls observed.
func (t *InFlight) Max() int64 { return t.max.Load() }
