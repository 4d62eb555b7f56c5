package models

import "time"

// Message is one entry of a conversation's append-only sequence. Only the read
// flag ever changes after insert, and only from false to true.
type Message struct {
	ID             string     `gorm:"primaryKey" json:"id" bson:"_id"`
	ConversationID string     `gorm:"not null;index:idx_msg_conv_created,priority:1;index:idx_msg_conv_unread,priority:1" json:"conversation_id" bson:"conversation_id"`
	SenderID       string     `gorm:"not null" json:"sender_id" bson:"sender_id"`
	ReceiverID     string     `gorm:"not null;index:idx_msg_conv_unread,priority:2" json:"receiver_id" bson:"receiver_id"`
	Text           string     `gorm:"type:text;not null" json:"text" bson:"text"`
	IsRead         bool       `gorm:"not null;index:idx_msg_conv_unread,priority:3" json:"is_read" bson:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;index:idx_msg_conv_created,priority:2" json:"created_at" bson:"created_at"`
}

// Before reports whether m sorts before other in conversation order:
// creation time first, id as the tie breaker.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
