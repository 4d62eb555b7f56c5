package storage

import (
	"context"
	"database/sql/driver"
	"net"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ConversationStore holds conversation records. CreateConversation returns
// apperr.ErrStoreConflict when the conversation key is already taken.
type ConversationStore interface {
	FindConversationByKey(ctx context.Context, key string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	// TouchConversation records messageID as the latest message unless a
	// later one is already recorded, and reactivates the conversation.
	TouchConversation(ctx context.Context, id, messageID string, at time.Time) error
	DeactivateConversation(ctx context.Context, id string) error
}

// MessageStore holds the append-only message sequence.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	// ListMessages returns the latest limit messages in chronological order.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	CountUnread(ctx context.Context, conversationID, userID string) (int64, error)
	MarkMessagesRead(ctx context.Context, conversationID, userID string, at time.Time) (int64, error)
}

// ReportStore holds reports. ResolvePendingReport is a conditional write and
// returns apperr.ErrAlreadyProcessed if the report is no longer pending.
type ReportStore interface {
	SaveReport(ctx context.Context, report models.PendingReport) error
	GetReportByID(ctx context.Context, id string) (models.Report, error)
	ListReportsByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.Report, error)
	ResolvePendingReport(ctx context.Context, id string, res models.Resolution) error
}

// DirectoryStore reads (and provisions) the users and products the core refers to.
type DirectoryStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	UpsertUser(ctx context.Context, user *models.User) error
	UpsertProduct(ctx context.Context, product *models.Product) error
}

// EnforcementStore applies moderation decisions. Each method is one atomic write.
type EnforcementStore interface {
	// ApplyWarning increments the warning count, capped at maxWarnings.
	// Reaching the cap suspends the user until suspendUntil in the same write.
	ApplyWarning(ctx context.Context, userID string, maxWarnings int, reason string, suspendUntil time.Time) (*models.User, error)
	SuspendUser(ctx context.Context, userID, reason string, until time.Time) (*models.User, error)
	RemoveProduct(ctx context.Context, productID string) (*models.Product, error)
}

type Storage interface {
	ConversationStore
	MessageStore
	ReportStore
	DirectoryStore
	EnforcementStore
	Ping(ctx context.Context) error
}

// classify maps driver errors onto the apperr taxonomy.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(apperr.ErrNotFound, op)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrapf(apperr.ErrStoreConflict, "%s: %v", op, err)
	case isUnavailable(err):
		return errors.Wrapf(apperr.ErrUnavailable, "%s: %v", op, err)
	}
	return errors.Wrap(err, op)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
