package api

import (
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageHandler serves direct messages between connected users.
type MessageHandler struct {
	messages service.MessageService
}

func NewMessageHandler(messages service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

// Send godoc
// @Summary Send a message
// @Description Requires an active assignment between the two users unless either is an admin.
// @Tags Messages
// @Accept json
// @Produce json
// @Param message body SendMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 403 {object} gin.H "Not connected"
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	recipientID, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid recipientId format")
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), actor, recipientID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Conversations godoc
// @Summary One entry per counterparty, newest first
// @Tags Messages
// @Produce json
// @Success 200 {array} domain.Conversation
// @Router /messages/conversations [get]
func (h *MessageHandler) Conversations(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	convs, err := h.messages.Conversations(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	c.JSON(http.StatusOK, convs)
}

// Thread godoc
// @Summary Messages exchanged with one user, oldest first
// @Description Messages received by the caller are marked read.
// @Tags Messages
// @Produce json
// @Param userId path string true "Counterparty ID"
// @Success 200 {array} domain.Message
// @Router /messages/with/{userId} [get]
func (h *MessageHandler) Thread(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	otherID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	page, ok := parsePage(c, 50, 200)
	if !ok {
		return
	}
	thread, err := h.messages.Thread(c.Request.Context(), actor, otherID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	if thread == nil {
		thread = []domain.Message{}
	}
	c.JSON(http.StatusOK, thread)
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	n, err := h.messages.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": n})
}

// MarkRead marks one message read. Only its recipient may do so.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), actor, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
