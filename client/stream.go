package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/parley-sh/parley"
	"github.com/parley-sh/parley/sse"
)

// Interface compliance check.
var _ parley.Stream = (*chatStream)(nil)

// openStream issues the streaming request and wraps the response body in a
// decoder. The returned stream owns the connection: Close (or ctx
// cancellation) stops the transport so partially-received bytes stop being
// processed.
func (c *Client) openStream(ctx context.Context, body streamRequest) (parley.Stream, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("client: encode request: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.baseURL+streamChatPath, bytes.NewReader(data))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("client: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, parley.ClassifyTransport(err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, parley.Classify(resp.StatusCode, resp.Header, respBody)
	}

	return &chatStream{
		ctx:    streamCtx,
		cancel: cancel,
		body:   resp.Body,
		dec:    sse.NewDecoder(resp.Body, c.logger),
	}, nil
}

// chatStream adapts an HTTP response body plus decoder to [parley.Stream].
type chatStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	body   io.ReadCloser
	dec    *sse.Decoder
}

// Next returns the next decoded event. Cancellation surfaces as the
// context's error; decoder read failures are classified as transport errors.
func (s *chatStream) Next() (parley.StreamEvent, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	evt, err := s.dec.Next()
	switch {
	case err == nil:
		return evt, nil
	case err == io.EOF:
		return nil, io.EOF
	case s.ctx.Err() != nil:
		// The read failed because the stream was cancelled mid-flight.
		return nil, s.ctx.Err()
	default:
		return nil, parley.ClassifyTransport(err)
	}
}

// Close stops the transport and releases the connection. Safe to call at
// any point; no further events are produced afterwards.
func (s *chatStream) Close() error {
	s.cancel()
	return s.body.Close()
}
