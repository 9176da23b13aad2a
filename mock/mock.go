// Package mock provides test doubles for parley interfaces using function
// fields.
package mock

import (
	"context"
	"io"

	"github.com/parley-sh/parley"
)

// Interface compliance checks.
var (
	_ parley.Backend = (*Backend)(nil)
	_ parley.Stream  = (*Stream)(nil)
)

// Backend is a test double for parley.Backend.
// Set the function fields for the methods you need; unset methods panic to
// catch missing setup.
type Backend struct {
	ChatFn         func(ctx context.Context, req parley.ChatRequest) (parley.ChatResponse, error)
	ChatStreamFn   func(ctx context.Context, req parley.ChatRequest) (parley.Stream, error)
	ConversationFn func(ctx context.Context, id int) (parley.Conversation, error)
}

// Chat delegates to ChatFn.
func (b *Backend) Chat(ctx context.Context, req parley.ChatRequest) (parley.ChatResponse, error) {
	return b.ChatFn(ctx, req)
}

// ChatStream delegates to ChatStreamFn.
func (b *Backend) ChatStream(ctx context.Context, req parley.ChatRequest) (parley.Stream, error) {
	return b.ChatStreamFn(ctx, req)
}

// Conversation delegates to ConversationFn.
func (b *Backend) Conversation(ctx context.Context, id int) (parley.Conversation, error) {
	return b.ConversationFn(ctx, id)
}

// Stream is a test double for parley.Stream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// because test code commonly calls defer stream.Close() without needing
// custom behavior.
type Stream struct {
	NextFn  func() (parley.StreamEvent, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (parley.StreamEvent, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// ScriptedStream returns a Stream that yields the given events in order,
// then io.EOF semantics via [EventsThenEOF].
func ScriptedStream(events ...parley.StreamEvent) *Stream {
	next := EventsThenEOF(events)
	return &Stream{NextFn: next}
}

// EventsThenEOF builds a NextFn that yields events in order and then
// returns io.EOF forever.
func EventsThenEOF(events []parley.StreamEvent) func() (parley.StreamEvent, error) {
	i := 0
	return func() (parley.StreamEvent, error) {
		if i >= len(events) {
			return nil, io.EOF
		}
		evt := events[i]
		i++
		return evt, nil
	}
}
