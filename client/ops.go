package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/parley-sh/parley"
)

// Chat performs a non-streaming completion via POST /chat/conversation.
// The full history plus the new prompt is sent as the message list.
func (c *Client) Chat(ctx context.Context, req parley.ChatRequest) (parley.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return parley.ChatResponse{}, err
	}

	body := conversationRequest{
		Messages:       make([]apiMessage, 0, len(req.History)+1),
		Model:          req.Model,
		Provider:       req.Provider,
		ConversationID: req.ConversationID,
	}
	for _, m := range req.History {
		body.Messages = append(body.Messages, apiMessage{Role: string(m.Role), Content: m.Text})
	}
	body.Messages = append(body.Messages, apiMessage{Role: string(parley.RoleUser), Content: req.Prompt})

	data, err := c.do(ctx, http.MethodPost, conversationPath, body)
	if err != nil {
		return parley.ChatResponse{}, err
	}

	var resp chatResponseBody
	if err := decodeJSON(data, &resp); err != nil {
		return parley.ChatResponse{}, err
	}
	return parley.ChatResponse{
		Response:       resp.Response,
		Model:          resp.Model,
		Provider:       resp.Provider,
		ConversationID: resp.ConversationID,
		Metadata:       resp.Metadata,
	}, nil
}

// ChatStream performs a streaming completion via POST /chat/. The call is
// made exactly once: mid-stream retry is undefined and not attempted.
// The per-attempt timeout does not apply; the stream is bounded by ctx.
func (c *Client) ChatStream(ctx context.Context, req parley.ChatRequest) (parley.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := streamRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		Provider:       req.Provider,
		ConversationID: req.ConversationID,
	}
	return c.openStream(ctx, body)
}

// Conversations lists conversation summaries, most recent first.
func (c *Client) Conversations(ctx context.Context) ([]parley.ConversationSummary, error) {
	data, err := c.do(ctx, http.MethodGet, historyPath, nil)
	if err != nil {
		return nil, err
	}
	var bodies []conversationSummaryBody
	if err := decodeJSON(data, &bodies); err != nil {
		return nil, err
	}
	out := make([]parley.ConversationSummary, len(bodies))
	for i, b := range bodies {
		out[i] = b.toDomain()
	}
	return out, nil
}

// Conversation hydrates a full conversation by ID.
func (c *Client) Conversation(ctx context.Context, id int) (parley.Conversation, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s%d", historyPath, id), nil)
	if err != nil {
		return parley.Conversation{}, err
	}
	var body conversationDetailBody
	if err := decodeJSON(data, &body); err != nil {
		return parley.Conversation{}, err
	}
	return body.toDomain(), nil
}

// DeleteConversation deletes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s%d", historyPath, id), nil)
	return err
}

// RenameConversation updates a conversation's title.
func (c *Client) RenameConversation(ctx context.Context, id int, title string) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s%d/title", historyPath, id), renameRequest{Title: title})
	return err
}

// Providers lists the backend's configured AI providers.
func (c *Client) Providers(ctx context.Context) (parley.ProviderList, error) {
	data, err := c.do(ctx, http.MethodGet, providersPath, nil)
	if err != nil {
		return parley.ProviderList{}, err
	}
	var body providersBody
	if err := decodeJSON(data, &body); err != nil {
		return parley.ProviderList{}, err
	}
	return parley.ProviderList{Providers: body.Providers, Default: body.Default}, nil
}

// ProviderModels lists the models available for a provider.
func (c *Client) ProviderModels(ctx context.Context, provider string) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, providersPath+"/"+provider+"/models", nil)
	if err != nil {
		return nil, err
	}
	var body providerModelsBody
	if err := decodeJSON(data, &body); err != nil {
		return nil, err
	}
	return body.Models, nil
}
