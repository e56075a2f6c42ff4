package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearvault/gearvault-backend/pkg/enums"
)

// Notification stores in-app alerts surfaced on the admin dashboard.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;type:text;not null"`
	Message   string                 `gorm:"column:message;type:text;not null"`
	ProductID *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
