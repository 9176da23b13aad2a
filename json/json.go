// Package json persists chat transcripts as versioned JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parley-sh/parley"
)

// envelope is the v1 wire format for a persisted transcript.
type envelope struct {
	Version        int          `json:"version"`
	ConversationID *int         `json:"conversation_id,omitempty"`
	Model          string       `json:"model,omitempty"`
	Provider       string       `json:"provider,omitempty"`
	SavedAt        time.Time    `json:"saved_at"`
	Messages       []messageDTO `json:"messages"`
}

// messageDTO is the JSON representation of a ChatMessage.
type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// MarshalTranscript serializes a Transcript to JSON in v1 envelope format.
func MarshalTranscript(t parley.Transcript) ([]byte, error) {
	env := envelope{
		Version:        1,
		ConversationID: t.ConversationID,
		Model:          t.Model,
		Provider:       t.Provider,
		SavedAt:        t.SavedAt,
		Messages:       make([]messageDTO, len(t.Messages)),
	}
	for i, msg := range t.Messages {
		dto, err := marshalMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes a Transcript from JSON in v1 envelope format.
func UnmarshalTranscript(data []byte) (parley.Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return parley.Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return parley.Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]parley.ChatMessage, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return parley.Transcript{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return parley.Transcript{
		ConversationID: env.ConversationID,
		Model:          env.Model,
		Provider:       env.Provider,
		SavedAt:        env.SavedAt,
		Messages:       msgs,
	}, nil
}

// Save writes a Transcript to a JSON file, creating parent directories as
// needed. The write is atomic with respect to readers of the final path.
func Save(path string, t parley.Transcript) error {
	data, err := MarshalTranscript(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Transcript from a JSON file.
func Load(path string) (parley.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return parley.Transcript{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTranscript(data)
}

func marshalMessage(msg parley.ChatMessage) (messageDTO, error) {
	switch msg.Role {
	case parley.RoleUser, parley.RoleAssistant:
	default:
		return messageDTO{}, fmt.Errorf("unknown role: %q", msg.Role)
	}
	return messageDTO{
		ID:        msg.ID,
		Role:      string(msg.Role),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func unmarshalMessage(dto messageDTO) (parley.ChatMessage, error) {
	role := parley.Role(dto.Role)
	switch role {
	case parley.RoleUser, parley.RoleAssistant:
	default:
		return parley.ChatMessage{}, fmt.Errorf("unknown role: %q", dto.Role)
	}
	return parley.ChatMessage{
		ID:        dto.ID,
		Role:      role,
		Text:      dto.Text,
		CreatedAt: dto.CreatedAt,
	}, nil
}
