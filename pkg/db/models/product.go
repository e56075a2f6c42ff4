package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing. Stock is an integer inventory count
// that must never go negative; every decrement happens through a conditional
// update guarded by the current value.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name        string            `gorm:"column:name;type:text;not null"`
	Description *string           `gorm:"column:description;type:text"`
	Brand       string            `gorm:"column:brand;type:text;not null"`
	CategoryID  uuid.UUID         `gorm:"column:category_id;type:uuid;not null;index"`
	Category    *Category         `gorm:"foreignKey:CategoryID"`
	PriceCents  int64             `gorm:"column:price_cents;not null"`
	Stock       int               `gorm:"column:stock;not null;default:0"`
	ImageURL    *string           `gorm:"column:image_url;type:text"`
	Specs       map[string]string `gorm:"column:specs;type:jsonb;serializer:json"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
