package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PreviewLength caps the last-message preview shown per conversation.
const PreviewLength = 100

// Message is a directed note between two users.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID    primitive.ObjectID `bson:"senderId" json:"senderId"`
	RecipientID primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	Content     string             `bson:"content" json:"content"`
	IsRead      bool               `bson:"isRead" json:"isRead"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	ReadAt      *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

// Counterparty returns the other side of the message from userID's point of view.
func (m *Message) Counterparty(userID primitive.ObjectID) primitive.ObjectID {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Conversation is derived from messages, grouped by counterparty. It is never stored.
type Conversation struct {
	UserID        primitive.ObjectID `json:"userId"`
	UserName      string             `json:"userName"`
	UserEmail     string             `json:"userEmail"`
	UserRole      Role               `json:"userRole"`
	LastMessage   string             `json:"lastMessage"`
	LastMessageAt time.Time          `json:"lastMessageAt"`
	UnreadCount   int                `json:"unreadCount"`
}

// Preview truncates content to PreviewLength characters.
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= PreviewLength {
		return content
	}
	return string(r[:PreviewLength]) + "..."
}
