// Package message appends messages to conversations and derives unread counts.
package message

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/config"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/storage"
	"bazaar/backend/pkg/logger"
	"bazaar/backend/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the part of storage the ledger needs.
type Store interface {
	storage.MessageStore
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	TouchConversation(ctx context.Context, id, messageID string, at time.Time) error
}

type Ledger struct {
	store    Store
	log      *logger.Logger
	pageSize int

	now   func() time.Time
	newID func() string
}

func NewLedger(store Store, log *logger.Logger, pageSize int) *Ledger {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Ledger{
		store:    store,
		log:      log,
		pageSize: pageSize,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// SetClock replaces the time source. Used by tests.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// ValidateText trims text and checks it against the message limits.
func ValidateText(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", apperr.Newf(apperr.ErrInvalidInput, "message is not valid UTF-8")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Newf(apperr.ErrInvalidInput, "message is empty")
	}
	if utf8.RuneCountInString(text) > config.MaxMessageLength {
		return "", apperr.Newf(apperr.ErrInvalidInput, "message longer than %d characters", config.MaxMessageLength)
	}
	return text, nil
}

// Append stores a message from senderID to receiverID. An empty receiverID
// means the other participant. The message is durable once Append returns;
// a failed conversation summary update is only logged.
func (l *Ledger) Append(ctx context.Context, conversationID, senderID, receiverID, text string) (*models.Message, error) {
	text, err := ValidateText(text)
	if err != nil {
		return nil, err
	}

	conv, err := l.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	counterpart, ok := conv.Counterpart(senderID)
	if !ok {
		return nil, apperr.ErrForbidden
	}
	if receiverID == "" {
		receiverID = counterpart
	}
	if receiverID != counterpart {
		return nil, apperr.ErrInvalidParticipants
	}

	msg := &models.Message{
		ID:             l.newID(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
		CreatedAt:      l.now(),
	}
	if err := l.store.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesAppended.Inc()

	if err := l.store.TouchConversation(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		l.log.Warn("conversation summary not updated",
			zap.String("conversation_id", conv.ID),
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
	return msg, nil
}

// List returns the latest page of messages in chronological order.
func (l *Ledger) List(ctx context.Context, conversationID, userID string) ([]models.Message, error) {
	if err := l.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return l.store.ListMessages(ctx, conversationID, l.pageSize)
}

// UnreadCountFor counts messages addressed to userID that are still unread.
// The count is read from the messages every time.
func (l *Ledger) UnreadCountFor(ctx context.Context, conversationID, userID string) (int64, error) {
	return l.store.CountUnread(ctx, conversationID, userID)
}

// MarkRead flips every unread message addressed to userID and returns how
// many were flipped.
func (l *Ledger) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	if err := l.checkParticipant(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return l.store.MarkMessagesRead(ctx, conversationID, userID, l.now())
}

func (l *Ledger) checkParticipant(ctx context.Context, conversationID, userID string) error {
	conv, err := l.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return apperr.ErrForbidden
	}
	return nil
}
