package handler

import (
	"net/http"
	"strconv"

	"bazaar/backend/internal/api/middleware"
	"bazaar/backend/internal/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultInboxPage = 20

// ListNotifications returns the caller's most recent notices, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	if h.Inbox == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []notify.Notification{}})
		return
	}
	limit := int64(defaultInboxPage)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	items, err := h.Inbox.List(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// Health pings the store.
func (h *Handler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		middleware.Logger(c).Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
