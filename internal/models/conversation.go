package models

import (
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Conversation represents the single thread between two users about one product.
// It is created on the first contact and never recreated afterwards.
type Conversation struct {
	// ID is the unique identifier of the conversation (UUIDv7).
	ID string `gorm:"primaryKey" json:"id" bson:"_id"`
	// ConversationKey is the deterministic uniqueness token, see ConversationKey.
	ConversationKey string `gorm:"uniqueIndex;not null" json:"conversation_key" bson:"conversation_key"`
	// Participants holds exactly two user IDs.
	Participants pq.StringArray `gorm:"type:text[];not null" json:"participants" bson:"participants"`
	// ProductID is a weak reference: the conversation survives listing removal.
	ProductID string `gorm:"not null;index" json:"product_id" bson:"product_id"`
	// LastMessageID points at the most recent message, nil until the first one.
	LastMessageID *string `json:"last_message_id,omitempty" bson:"last_message_id,omitempty"`
	// LastMessageAt orders conversation lists. Set to the creation time on insert.
	LastMessageAt time.Time `gorm:"not null;index" json:"last_message_at" bson:"last_message_at"`
	// IsActive is cleared when either participant archives the conversation.
	IsActive  bool      `gorm:"not null" json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ConversationKey builds the uniqueness token for a participant pair and a
// product. The pair is sorted, so the argument order does not matter.
func ConversationKey(userA, userB, productID string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, "-") + "-" + productID
}

// NewConversation returns an active conversation between userA and userB.
func NewConversation(id, userA, userB, productID string, now time.Time) *Conversation {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return &Conversation{
		ID:              id,
		ConversationKey: ConversationKey(userA, userB, productID),
		Participants:    pq.StringArray(pair),
		ProductID:       productID,
		LastMessageAt:   now,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant. ok is false if userID is not a participant.
func (c *Conversation) Counterpart(userID string) (string, bool) {
	if !c.HasParticipant(userID) {
		return "", false
	}
	for _, p := range c.Participants {
		if p != userID {
			return p, true
		}
	}
	return "", false
}

// ConversationView is a conversation with the summaries needed for display.
type ConversationView struct {
	Conversation
	ParticipantSummaries []UserSummary  `json:"participant_summaries"`
	Product              *ProductSummary `json:"product,omitempty"`
	UnreadCount          *int64          `json:"unread_count,omitempty"`
}
