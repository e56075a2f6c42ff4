package catalog

import (
	"github.com/google/uuid"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/pagination"
)

// ProductListFilters narrows public product listings.
type ProductListFilters struct {
	CategoryID    *uuid.UUID
	Brand         *string
	PriceMinCents *int64
	PriceMaxCents *int64
	InStockOnly   bool
	Query         string
}

type productListQuery struct {
	Pagination pagination.Params
	Filters    ProductListFilters
}

// ListProductsParams configures a public product listing request.
type ListProductsParams struct {
	Pagination pagination.Params
	Filters    ProductListFilters
}

// ProductListResult wraps a product page with its continuation cursor.
type ProductListResult struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// CreateProductInput carries admin product creation fields.
type CreateProductInput struct {
	Name        string            `json:"name" validate:"required,min=2,max=200"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	Brand       string            `json:"brand" validate:"required,min=1,max=100"`
	CategoryID  uuid.UUID         `json:"category_id" validate:"required"`
	PriceCents  int64             `json:"price_cents" validate:"required,gt=0"`
	Stock       int               `json:"stock" validate:"min=0"`
	ImageURL    *string           `json:"image_url" validate:"omitempty,url"`
	Specs       map[string]string `json:"specs" validate:"omitempty,max=40"`
}

// UpdateProductInput carries partial admin product updates. Stock is an
// explicit restock value, not a delta.
type UpdateProductInput struct {
	Name        *string            `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=5000"`
	Brand       *string            `json:"brand" validate:"omitempty,min=1,max=100"`
	CategoryID  *uuid.UUID         `json:"category_id"`
	PriceCents  *int64             `json:"price_cents" validate:"omitempty,gt=0"`
	Stock       *int               `json:"stock" validate:"omitempty,min=0"`
	ImageURL    *string            `json:"image_url" validate:"omitempty,url"`
	Specs       *map[string]string `json:"specs"`
	IsActive    *bool              `json:"is_active"`
}

// CreateCategoryInput carries admin category creation fields.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Slug        string  `json:"slug" validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}
