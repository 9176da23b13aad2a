package parley

import "time"

// ChatMessage is a single message in a conversation. Messages are immutable
// once appended to a session. IDs are client-generated and unique within a
// session; hydrated messages carry the backend's ID rendered as a string.
type ChatMessage struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
}
