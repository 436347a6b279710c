package api

import (
	"context"
	"net/http"
	"net/url"

	"talent-sync/internal/models"
)

func (c *Client) GetConversations(ctx context.Context) (ListResult[models.Conversation], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/conversations", "/conversations", nil)
	if err != nil {
		return ListResult[models.Conversation]{}, err
	}
	return DecodeList[models.Conversation](env.Data, "conversations"), nil
}

// CreateConversation returns the existing conversation when the server
// already has one for these participants.
func (c *Client) CreateConversation(ctx context.Context, participantIDs []string) (models.Conversation, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/conversations", "/conversations", map[string]interface{}{
		"participantIds": participantIDs,
	})
	if err != nil {
		return models.Conversation{}, err
	}
	return decodeOne[models.Conversation](env, "conversation")
}

func (c *Client) GetMessages(ctx context.Context, conversationID string) (ListResult[models.Message], error) {
	env, err := c.sendJSON(ctx, http.MethodGet, "/conversations/{id}/messages",
		"/conversations/"+url.PathEscape(conversationID)+"/messages", nil)
	if err != nil {
		return ListResult[models.Message]{}, err
	}
	return DecodeList[models.Message](env.Data, "messages"), nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (models.Message, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/conversations/{id}/messages",
		"/conversations/"+url.PathEscape(conversationID)+"/messages", map[string]string{
			"content": content,
		})
	if err != nil {
		return models.Message{}, err
	}
	return decodeOne[models.Message](env, "message")
}
