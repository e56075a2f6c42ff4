package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gearvault/gearvault-backend/pkg/enums"
)

// Order is a persisted purchase. TotalCents equals the sum of its items'
// price snapshots times quantity at order time.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	TotalCents       int64               `gorm:"column:total_cents;not null"`
	ShippingAddress  string              `gorm:"column:shipping_address;type:text;not null"`
	GatewayOrderID   *string             `gorm:"column:gateway_order_id;type:text"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id;type:text"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
