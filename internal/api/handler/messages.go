package handler

import (
	"net/http"

	"bazaar/backend/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Text           string `json:"text"`
	// ReceiverID defaults to the other participant.
	ReceiverID string `json:"receiver_id"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Messages.Append(c.Request.Context(), req.ConversationID, middleware.UserID(c), req.ReceiverID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListMessages(c *gin.Context) {
	conversationID := c.Query("conversation_id")
	if conversationID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "conversation_id is required"})
		return
	}
	msgs, err := h.Messages.List(c.Request.Context(), conversationID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
