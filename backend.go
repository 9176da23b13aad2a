package parley

import "context"

// Backend is the surface a session controller needs from the chat backend.
// The client package provides the HTTP implementation; the mock package
// provides a test double.
type Backend interface {
	// Chat performs a non-streaming completion.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// ChatStream performs a streaming completion. The returned Stream is
	// lazy, finite and not restartable; cancelling ctx stops the transport.
	ChatStream(ctx context.Context, req ChatRequest) (Stream, error)

	// Conversation hydrates a persisted conversation by ID.
	Conversation(ctx context.Context, id int) (Conversation, error)
}
