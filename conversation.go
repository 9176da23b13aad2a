package parley

import "time"

// ConversationSummary is a history-list entry from the backend.
type ConversationSummary struct {
	ID                 int
	Title              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	MessageCount       int
	LastMessagePreview string
}

// Conversation is a fully hydrated conversation: the backend's source of
// truth for a session's message history.
type Conversation struct {
	ID        int
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []ChatMessage
}

// ProviderList enumerates the backend's configured AI providers.
type ProviderList struct {
	Providers []string
	Default   string
}
