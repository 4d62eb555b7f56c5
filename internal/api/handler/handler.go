// Package handler maps the /api/v1 routes onto the conversation, message and
// moderation services. The caller id always comes from the Auth middleware.
package handler

import (
	"context"
	"net/http"

	"bazaar/backend/internal/api/middleware"
	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/moderation"
	"bazaar/backend/internal/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Conversations is implemented by conversation.Registry.
type Conversations interface {
	StartOrGet(ctx context.Context, callerID, counterpartID, productID string) (*models.ConversationView, error)
	List(ctx context.Context, userID string) ([]models.ConversationView, error)
	Get(ctx context.Context, conversationID, userID string) (*models.ConversationView, error)
	Archive(ctx context.Context, conversationID, userID string) error
}

// Messages is implemented by message.Ledger.
type Messages interface {
	Append(ctx context.Context, conversationID, senderID, receiverID, text string) (*models.Message, error)
	List(ctx context.Context, conversationID, userID string) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID, userID string) (int64, error)
}

// Reports is implemented by moderation.Engine.
type Reports interface {
	FileReport(ctx context.Context, reporterID, productID, reason, description string) (*models.PendingReport, error)
	ListReports(ctx context.Context, reviewerID, status string) ([]models.Report, error)
	ResolveReport(ctx context.Context, reportID, reviewerID string, req moderation.ResolveRequest) (*moderation.Outcome, error)
}

// Inbox is implemented by notify.Inbox.
type Inbox interface {
	List(ctx context.Context, userID string, limit int64) ([]notify.Notification, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler містить сервіси, які обслуговують HTTP-запити.
type Handler struct {
	Conversations Conversations
	Messages      Messages
	Reports       Reports
	// Inbox is nil when Redis is not configured.
	Inbox Inbox
	Store Pinger
}

func NewHandler(conversations Conversations, messages Messages, reports Reports, inbox Inbox, store Pinger) *Handler {
	return &Handler{
		Conversations: conversations,
		Messages:      messages,
		Reports:       reports,
		Inbox:         inbox,
		Store:         store,
	}
}

// respondError writes the public form of err. Server-side failures are
// logged with the full chain.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		middleware.Logger(c).Error("request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// bindJSON decodes the body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
