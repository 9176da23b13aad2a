package parley

import (
	"fmt"
	"time"
)

// ErrorKind is the closed set of failure categories the client distinguishes.
// Classification happens once, at the point of failure; everything downstream
// (retry policy, session state, UI) switches on the kind.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindAuth
	KindRateLimit
	KindValidation
	KindTimeout
)

// String returns the kind's name for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindValidation:
		return "validation"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind is worth retrying.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetwork, KindRateLimit, KindTimeout:
		return true
	default:
		return false
	}
}

// Error is a classified request failure.
//
// Cancellation is not an Error: an aborted call surfaces as the context's
// error and is never shown to the user.
type Error struct {
	Kind    ErrorKind
	Message string

	// RetryAfter is the server's wait hint for rate-limit errors.
	// Zero when the server provided none.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// UserMessage returns a human-readable description suitable for display.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindAuth:
		return "Authentication failed. Check your API key configuration."
	case KindRateLimit:
		wait := e.RetryAfter
		if wait <= 0 {
			wait = DefaultRetryAfter
		}
		return fmt.Sprintf("Rate limited. Try again in %s.", wait)
	case KindValidation:
		if e.Message != "" {
			return "Request rejected: " + e.Message
		}
		return "Request rejected by the server."
	case KindTimeout:
		return "The request timed out. Try again."
	default:
		if e.Message != "" {
			return "Connection problem: " + e.Message
		}
		return "Could not reach the chat backend."
	}
}
