package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the privilege level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Standing is the moderation state of a user.
type Standing struct {
	// WarningCount goes from 0 to MaxWarnings and never decreases here.
	WarningCount int `gorm:"not null;default:0" json:"warning_count" bson:"warning_count"`
	// IsSuspended is set together with SuspensionReason and SuspensionEndDate.
	IsSuspended      bool   `gorm:"not null;default:false" json:"is_suspended" bson:"is_suspended"`
	SuspensionReason string `json:"suspension_reason,omitempty" bson:"suspension_reason,omitempty"`
	// SuspensionEndDate is advisory; expiry is judged by a SuspensionChecker.
	SuspensionEndDate *time.Time `json:"suspension_end_date,omitempty" bson:"suspension_end_date,omitempty"`
}

// User представляє користувача маркетплейсу в обсязі, потрібному ядру:
// ідентифікація, роль, канали сповіщень і модераційний статус.
type User struct {
	ID             string    `gorm:"primaryKey" json:"id" bson:"_id"` // UUID
	Name           string    `json:"name" bson:"name"`
	Role           Role      `gorm:"type:text;not null;default:'user'" json:"role" bson:"role"`
	LanguageCode   string    `json:"language_code,omitempty" bson:"language_code,omitempty"`
	TelegramChatID int64     `gorm:"index" json:"-" bson:"telegram_chat_id,omitempty"` // 0 коли не прив'язано
	Standing       Standing  `gorm:"embedded" json:"standing" bson:"standing"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// BeforeCreate: хук GORM, який викликається перед створенням запису.
// Він генерує новий UUID для користувача, якщо ID ще не встановлено.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Summary returns the public part of the user shown next to conversations.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}

// UserSummary is what other users may see about a participant.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
