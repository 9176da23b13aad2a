package parley

import "time"

// Transcript is a locally persisted copy of a conversation, suitable for
// exporting a session to disk and restoring it later.
type Transcript struct {
	ConversationID *int
	Model          string
	Provider       string
	SavedAt        time.Time
	Messages       []ChatMessage
}
