package handler

import (
	"net/http"

	"bazaar/backend/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

type startConversationRequest struct {
	ProductID     string `json:"product_id" binding:"required"`
	CounterpartID string `json:"counterpart_id" binding:"required"`
}

// StartConversation returns the conversation between the caller and the
// counterpart about a product, creating it on first contact.
func (h *Handler) StartConversation(c *gin.Context) {
	var req startConversationRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.Conversations.StartOrGet(c.Request.Context(), middleware.UserID(c), req.CounterpartID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) ListConversations(c *gin.Context) {
	views, err := h.Conversations.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (h *Handler) GetConversation(c *gin.Context) {
	view, err := h.Conversations.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) ArchiveConversation(c *gin.Context) {
	if err := h.Conversations.Archive(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkConversationRead flips every unread message addressed to the caller.
func (h *Handler) MarkConversationRead(c *gin.Context) {
	n, err := h.Messages.MarkRead(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
