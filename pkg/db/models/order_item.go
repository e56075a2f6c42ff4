package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the snapshot of each purchased line. PriceCents is the
// product price at purchase time and never changes afterwards.
type OrderItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Name       string     `gorm:"column:name;not null"`
	PriceCents int64      `gorm:"column:price_cents;not null"`
	Quantity   int        `gorm:"column:quantity;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
