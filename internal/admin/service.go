package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearvault/gearvault-backend/internal/auth"
	"github.com/gearvault/gearvault-backend/internal/catalog"
	"github.com/gearvault/gearvault-backend/internal/orders"
	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/pagination"
)

// Service aggregates the storefront figures surfaced on the admin dashboard
// and exposes the admin-only listings.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardView, error)
	ListUsers(ctx context.Context, params pagination.Params) (*UserListResult, error)
	ListOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*orders.ListResult, error)
}

// DashboardView is the rollup returned by the dashboard endpoint.
type DashboardView struct {
	TotalUsers     int64                       `json:"total_users"`
	TotalProducts  int64                       `json:"total_products"`
	TotalOrders    int64                       `json:"total_orders"`
	OrdersByStatus map[enums.OrderStatus]int64 `json:"orders_by_status"`
	Revenue        string                      `json:"revenue"`
	RevenueCents   int64                       `json:"revenue_cents"`
	LowStock       []LowStockProduct           `json:"low_stock"`
}

// LowStockProduct is the trimmed product shape used in the dashboard alert list.
type LowStockProduct struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Stock int    `json:"stock"`
}

// UserView is the admin-facing user shape. No credential material.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UserListResult wraps a user page with its continuation cursor.
type UserListResult struct {
	Users      []UserView `json:"users"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type service struct {
	users             *auth.Repository
	products          *catalog.Repository
	ordersRepo        *orders.Repository
	ordersSvc         orders.Service
	lowStockThreshold int
}

// NewService wires admin dependencies.
func NewService(users *auth.Repository, products *catalog.Repository, ordersRepo *orders.Repository, ordersSvc orders.Service, lowStockThreshold int) (Service, error) {
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if ordersSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders service required")
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}
	return &service{
		users:             users,
		products:          products,
		ordersRepo:        ordersRepo,
		ordersSvc:         ordersSvc,
		lowStockThreshold: lowStockThreshold,
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardView, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	productCount, err := s.products.CountProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	orderCount, err := s.ordersRepo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	byStatus, err := s.ordersRepo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders by status")
	}
	revenueCents, err := s.ordersRepo.SumPaidRevenueCents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	lowStock, err := s.products.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}

	return &DashboardView{
		TotalUsers:     userCount,
		TotalProducts:  productCount,
		TotalOrders:    orderCount,
		OrdersByStatus: byStatus,
		Revenue:        decimal.NewFromInt(revenueCents).Div(decimal.NewFromInt(100)).StringFixed(2),
		RevenueCents:   revenueCents,
		LowStock:       toLowStockViews(lowStock),
	}, nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params) (*UserListResult, error) {
	rows, next, err := s.users.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	views := make([]UserView, 0, len(rows))
	for i := range rows {
		views = append(views, toUserView(&rows[i]))
	}
	return &UserListResult{Users: views, NextCursor: next}, nil
}

func (s *service) ListOrders(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (*orders.ListResult, error) {
	return s.ordersSvc.ListAll(ctx, status, params)
}

func toLowStockViews(products []models.Product) []LowStockProduct {
	views := make([]LowStockProduct, 0, len(products))
	for _, product := range products {
		views = append(views, LowStockProduct{
			ID:    product.ID.String(),
			Name:  product.Name,
			Brand: product.Brand,
			Stock: product.Stock,
		})
	}
	return views
}

func toUserView(user *models.User) UserView {
	return UserView{
		ID:          user.ID.String(),
		Email:       user.Email,
		Name:        user.Name,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
