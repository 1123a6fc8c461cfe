package client

import (
	"context"
	"etape/training-hub/internal/domain"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversations returns one entry per counterparty, newest first.
func (c *Client) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/messages/conversations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Thread returns messages exchanged with userID, oldest first. The server marks received ones read.
func (c *Client) Thread(ctx context.Context, userID primitive.ObjectID, page Page) ([]domain.Message, error) {
	var out []domain.Message
	if err := c.do(ctx, http.MethodGet, idPath("/messages/with/%s", userID), page.apply(nil), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, recipientID primitive.ObjectID, content string) (*domain.Message, error) {
	in := map[string]string{"recipientId": recipientID.Hex(), "content": content}
	var out domain.Message
	if err := c.do(ctx, http.MethodPost, "/messages", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	if err := c.do(ctx, http.MethodGet, "/messages/unread-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (c *Client) MarkRead(ctx context.Context, messageID primitive.ObjectID) error {
	return c.do(ctx, http.MethodPut, idPath("/messages/%s/read", messageID), nil, nil, nil)
}
