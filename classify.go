package parley

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is the wait hint assumed for rate-limit responses that
// carry no Retry-After header.
const DefaultRetryAfter = 60 * time.Second

// Classify maps a non-2xx HTTP response to a typed *Error. It is pure: no
// side effects, no retries. The body, when present, is mined for the
// backend's {"detail": ...} message.
func Classify(statusCode int, header http.Header, body []byte) *Error {
	msg := detailMessage(body)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &Error{Kind: KindAuth, Message: msg}
	case statusCode == http.StatusTooManyRequests:
		return &Error{
			Kind:       KindRateLimit,
			Message:    msg,
			RetryAfter: retryAfter(header),
		}
	case statusCode >= 400 && statusCode < 500:
		// 400, 422 and all other 4xx: the request itself is bad.
		return &Error{Kind: KindValidation, Message: msg}
	default:
		// 500, 502, 503, 504 and anything else is a server-side fault.
		return &Error{Kind: KindNetwork, Message: msg}
	}
}

// ClassifyTransport maps a local transport failure (no response received) to
// a typed error. Context cancellation passes through unchanged so callers can
// distinguish an abort from a genuine failure; a deadline becomes a
// retryable timeout; everything else is a network error.
func ClassifyTransport(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "request deadline exceeded"}
	default:
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
}

// detailMessage extracts the backend's error detail from a JSON body.
// Falls back to the raw body, trimmed, when the shape doesn't match.
func detailMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// retryAfter parses the Retry-After header as delay seconds.
// Returns DefaultRetryAfter when absent or unparseable.
func retryAfter(header http.Header) time.Duration {
	v := header.Get("Retry-After")
	if v == "" {
		return DefaultRetryAfter
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return DefaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
