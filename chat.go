package parley

import (
	"fmt"
	"strings"
)

// ChatRequest carries one user prompt plus routing parameters.
// The backend uses its own defaults when fields are zero/nil.
type ChatRequest struct {
	Prompt         string
	Model          string // model ID, backend-specific; empty = backend default
	Provider       string // provider name; empty = backend default
	ConversationID *int   // nil = start a new conversation
	History        []ChatMessage
}

// Validate checks universal constraints on ChatRequest.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &Error{Kind: KindValidation, Message: "prompt must not be empty"}
	}
	if r.ConversationID != nil && *r.ConversationID <= 0 {
		return &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("conversation id must be positive, got %d", *r.ConversationID),
		}
	}
	return nil
}

// ChatResponse is the backend's non-streaming chat completion.
type ChatResponse struct {
	Response       string
	Model          string
	Provider       string
	ConversationID *int
	Metadata       map[string]any
}
