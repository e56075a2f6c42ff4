package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearvault/gearvault-backend/pkg/enums"
)

// AssistantMessage is one turn in an assistant chat.
type AssistantMessage struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ChatID     uuid.UUID      `gorm:"column:chat_id;type:uuid;not null;index"`
	Role       enums.ChatRole `gorm:"column:role;type:text;not null"`
	Content    string         `gorm:"column:content;type:text;not null"`
	ProductIDs []uuid.UUID    `gorm:"column:product_ids;type:jsonb;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime;index"`
}
