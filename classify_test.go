package parley_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/parley-sh/parley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantKind  parley.ErrorKind
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, parley.KindAuth, false},
		{"forbidden", http.StatusForbidden, parley.KindAuth, false},
		{"rate limited", http.StatusTooManyRequests, parley.KindRateLimit, true},
		{"bad request", http.StatusBadRequest, parley.KindValidation, false},
		{"unprocessable", http.StatusUnprocessableEntity, parley.KindValidation, false},
		{"other 4xx", http.StatusConflict, parley.KindValidation, false},
		{"internal error", http.StatusInternalServerError, parley.KindNetwork, true},
		{"bad gateway", http.StatusBadGateway, parley.KindNetwork, true},
		{"unavailable", http.StatusServiceUnavailable, parley.KindNetwork, true},
		{"gateway timeout", http.StatusGatewayTimeout, parley.KindNetwork, true},
		{"other 5xx", 599, parley.KindNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := parley.Classify(tt.status, http.Header{}, nil)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.retryable, err.Kind.Retryable())
		})
	}
}

func TestClassify_DetailMessage(t *testing.T) {
	t.Parallel()

	err := parley.Classify(http.StatusServiceUnavailable, http.Header{}, []byte(`{"detail":"Cannot connect to Ollama"}`))
	assert.Equal(t, "Cannot connect to Ollama", err.Message)

	err = parley.Classify(http.StatusBadRequest, http.Header{}, []byte("plain text body"))
	assert.Equal(t, "plain text body", err.Message)
}

func TestClassify_RetryAfter(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("Retry-After", "13")
	err := parley.Classify(http.StatusTooManyRequests, h, nil)
	assert.Equal(t, 13*time.Second, err.RetryAfter)

	// Absent or garbage headers fall back to the default hint.
	err = parley.Classify(http.StatusTooManyRequests, http.Header{}, nil)
	assert.Equal(t, parley.DefaultRetryAfter, err.RetryAfter)

	h = http.Header{}
	h.Set("Retry-After", "soon")
	err = parley.Classify(http.StatusTooManyRequests, h, nil)
	assert.Equal(t, parley.DefaultRetryAfter, err.RetryAfter)
}

func TestClassifyTransport(t *testing.T) {
	t.Parallel()

	t.Run("cancellation passes through", func(t *testing.T) {
		t.Parallel()
		err := parley.ClassifyTransport(context.Canceled)
		assert.ErrorIs(t, err, context.Canceled)
		var pe *parley.Error
		assert.False(t, errors.As(err, &pe))
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		t.Parallel()
		err := parley.ClassifyTransport(context.DeadlineExceeded)
		var pe *parley.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, parley.KindTimeout, pe.Kind)
		assert.True(t, pe.Kind.Retryable())
	})

	t.Run("other failures become network errors", func(t *testing.T) {
		t.Parallel()
		err := parley.ClassifyTransport(errors.New("connection refused"))
		var pe *parley.Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, parley.KindNetwork, pe.Kind)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, parley.ClassifyTransport(nil))
	})
}

func TestError_UserMessage(t *testing.T) {
	t.Parallel()

	rl := &parley.Error{Kind: parley.KindRateLimit, RetryAfter: 30 * time.Second}
	assert.Contains(t, rl.UserMessage(), "30s")

	auth := &parley.Error{Kind: parley.KindAuth}
	assert.Contains(t, auth.UserMessage(), "Authentication")

	val := &parley.Error{Kind: parley.KindValidation, Message: "prompt too long"}
	assert.Contains(t, val.UserMessage(), "prompt too long")
}
