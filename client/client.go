// Package client implements [parley.Backend] against the parley chat
// backend's HTTP API.
//
// One Client is constructed per process. It owns the in-flight request
// deduplication and the short-TTL response cache for read calls, so all
// sessions sharing the Client share those maps.
package client

import (
	"context"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/parley-sh/parley"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Interface compliance check.
var _ parley.Backend = (*Client)(nil)

const (
	defaultBaseURL = "http://127.0.0.1:8000"
	defaultTimeout = 60 * time.Second

	// cacheTTL bounds how long an idempotent response may be served
	// without a network call.
	cacheTTL = 30 * time.Second
)

// RetryPolicy bounds retry behavior for transient failures.
// MaxAttempts counts total attempts including the first.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Client issues HTTP calls to the chat backend with per-attempt timeouts,
// retry with backoff, read deduplication and read caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      RetryPolicy
	logger     *zap.Logger

	// Injected clock primitives; tests replace them to exercise TTL and
	// backoff without real timers.
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64

	flight singleflight.Group

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the backend base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client. The client must not set its own
// Timeout: per-attempt timeouts are applied via request contexts, and a
// client-level timeout would kill long-lived streams.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-attempt request timeout. It does not apply to
// streaming calls, which are bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock injects the time source and the interruptible sleep used for
// cache TTL and retry backoff.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

// WithJitter injects the jitter source, a function returning values in [0, 1).
func WithJitter(f func() float64) Option {
	return func(c *Client) { c.jitter = f }
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		retry:      DefaultRetryPolicy(),
		logger:     zap.NewNop(),
		now:        time.Now,
		sleep:      sleepContext,
		jitter:     rand.Float64,
		cache:      make(map[string]cacheEntry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
