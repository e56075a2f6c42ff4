package models

import (
	"time"

	"github.com/google/uuid"
)

// AssistantChat is a conversation thread. Exactly one chat exists per user
// per calendar day; ChatDate stores the UTC day in YYYY-MM-DD form.
type AssistantChat struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_chat_user_date"`
	ChatDate  string             `gorm:"column:chat_date;type:text;not null;uniqueIndex:idx_chat_user_date"`
	Title     string             `gorm:"column:title;type:text;not null"`
	Messages  []AssistantMessage `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
