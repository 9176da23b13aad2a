package client

import (
	"strconv"
	"time"

	"github.com/parley-sh/parley"
)

// Backend API paths. The chat router lives under /chat, conversation
// history under /conversations.
const (
	streamChatPath   = "/chat/"
	conversationPath = "/chat/conversation"
	providersPath    = "/chat/providers"
	historyPath      = "/conversations/"
)

// streamRequest is the JSON body for POST /chat/ (streaming).
type streamRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model,omitempty"`
	Provider       string `json:"provider,omitempty"`
	ConversationID *int   `json:"conversation_id,omitempty"`
}

// apiMessage is one turn in a conversation completion request.
type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// conversationRequest is the JSON body for POST /chat/conversation.
type conversationRequest struct {
	Messages       []apiMessage `json:"messages"`
	Model          string       `json:"model,omitempty"`
	Provider       string       `json:"provider,omitempty"`
	ConversationID *int         `json:"conversation_id,omitempty"`
}

// chatResponseBody is the non-streaming completion response.
type chatResponseBody struct {
	Response       string         `json:"response"`
	Model          string         `json:"model"`
	Provider       string         `json:"provider"`
	ConversationID *int           `json:"conversation_id"`
	Metadata       map[string]any `json:"metadata"`
}

type conversationSummaryBody struct {
	ID                 int       `json:"id"`
	Title              *string   `json:"title"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	MessageCount       int       `json:"message_count"`
	LastMessagePreview *string   `json:"last_message_preview"`
}

type messageDetailBody struct {
	ID        int       `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type conversationDetailBody struct {
	ID        int                 `json:"id"`
	Title     *string             `json:"title"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Messages  []messageDetailBody `json:"messages"`
}

type providersBody struct {
	Providers []string `json:"providers"`
	Default   string   `json:"default"`
}

type providerModelsBody struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

type renameRequest struct {
	Title string `json:"title"`
}

func (b conversationSummaryBody) toDomain() parley.ConversationSummary {
	s := parley.ConversationSummary{
		ID:           b.ID,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		MessageCount: b.MessageCount,
	}
	if b.Title != nil {
		s.Title = *b.Title
	}
	if b.LastMessagePreview != nil {
		s.LastMessagePreview = *b.LastMessagePreview
	}
	return s
}

func (b conversationDetailBody) toDomain() parley.Conversation {
	conv := parley.Conversation{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Messages:  make([]parley.ChatMessage, len(b.Messages)),
	}
	if b.Title != nil {
		conv.Title = *b.Title
	}
	for i, m := range b.Messages {
		conv.Messages[i] = parley.ChatMessage{
			ID:        strconv.Itoa(m.ID),
			Role:      parley.Role(m.Role),
			Text:      m.Content,
			CreatedAt: m.Timestamp,
		}
	}
	return conv
}
