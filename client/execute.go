package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parley-sh/parley"
	"go.uber.org/zap"
)

// do executes a JSON call with retry. Read calls (GET) are additionally
// deduplicated against identical in-flight calls and served from the
// response cache when a live entry exists.
func (c *Client) do(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("client: encode request: %w", err)
		}
	}
	url := c.baseURL + path

	if method != http.MethodGet {
		return c.fetchRetry(ctx, method, url, body)
	}

	// Dedup key: method + canonical URL + serialized body. All callers
	// sharing a key attach to the same in-flight result; singleflight
	// removes the entry exactly once, on settlement.
	key := method + " " + url + "\n" + string(body)
	v, err, _ := c.flight.Do(key, func() (any, error) {
		if data, ok := c.cached(key); ok {
			return data, nil
		}
		data, err := c.fetchRetry(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
		c.store(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// cached returns a live cache entry. Expired entries are evicted lazily here.
func (c *Client) cached(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= cacheTTL {
		delete(c.cache, key)
		return nil, false
	}
	return e.data, true
}

func (c *Client) store(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{data: data, storedAt: c.now()}
}

// fetchRetry performs up to MaxAttempts attempts, waiting the backoff delay
// before each attempt after the first. Only retryable error kinds are
// retried; the final attempt's failure is always surfaced.
func (c *Client) fetchRetry(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retryDelay(attempt-1, lastErr)
			c.logger.Debug("retrying request",
				zap.String("method", method),
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		data, err := c.attempt(ctx, method, url, body)
		if err == nil {
			return data, nil
		}
		var pe *parley.Error
		if !errors.As(err, &pe) || !pe.Kind.Retryable() {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// retryDelay computes the wait before the next attempt given the number of
// failures so far. A server-provided hint (Retry-After) takes precedence;
// otherwise the delay grows exponentially, capped, plus up to 10% jitter.
func (c *Client) retryDelay(failures int, lastErr error) time.Duration {
	var pe *parley.Error
	if errors.As(lastErr, &pe) && pe.RetryAfter > 0 {
		return pe.RetryAfter
	}
	d := c.retry.BaseDelay << (failures - 1)
	if d <= 0 || d > c.retry.MaxDelay {
		d = c.retry.MaxDelay
	}
	return d + time.Duration(float64(d)*0.1*c.jitter())
}

// attempt performs a single timeout-bounded HTTP exchange. All failures are
// returned classified; a caller-initiated cancellation returns the context's
// error untouched.
func (c *Client) attempt(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, parley.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, parley.ClassifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parley.Classify(resp.StatusCode, resp.Header, data)
	}
	return data, nil
}

func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
