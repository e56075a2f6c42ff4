package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/internal/cart"
	"github.com/gearvault/gearvault-backend/internal/orders"
	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lowStockNotifier interface {
	NotifyLowStock(ctx context.Context, tx *gorm.DB, product *models.Product, remaining int) error
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

// Input captures the checkout payload.
type Input struct {
	ShippingAddress string `json:"shipping_address" validate:"required,min=10,max=500"`
}

type service struct {
	tx                txRunner
	cartRepo          *cart.Repository
	ordersRepo        *orders.Repository
	notifier          lowStockNotifier
	logg              *logger.Logger
	lowStockThreshold int
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	ordersRepo *orders.Repository,
	notifier lowStockNotifier,
	logg *logger.Logger,
	lowStockThreshold int,
) (Service, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	}
	if cartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "low stock notifier required")
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}
	return &service{
		tx:                tx,
		cartRepo:          cartRepo,
		ordersRepo:        ordersRepo,
		notifier:          notifier,
		logg:              logg,
		lowStockThreshold: lowStockThreshold,
	}, nil
}

// Execute turns the user's cart into an order inside one transaction. Stock
// is decremented conditionally per line; any shortfall rolls everything back
// and surfaces the offending products.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	address := strings.TrimSpace(input.ShippingAddress)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		items, err := cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		lines := make([]StockLine, 0, len(items))
		for _, item := range items {
			if item.Product == nil || !item.Product.IsActive {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart contains an unavailable product").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			lines = append(lines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		violations, err := DecrementStock(ctx, tx, lines)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if len(violations) > 0 {
			return insufficientStockError(violations)
		}

		order = buildOrder(userID, address, items)
		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := cartRepo.DeleteAllForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		return s.raiseLowStockAlerts(ctx, tx, items)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":    order.ID,
			"total_cents": order.TotalCents,
			"line_count":  len(order.Items),
		}), "checkout.completed")
	}
	return order, nil
}

func buildOrder(userID uuid.UUID, address string, items []models.CartItem) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		ShippingAddress: address,
	}
	for _, item := range items {
		productID := item.ProductID
		line := models.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  &productID,
			Name:       item.Product.Name,
			PriceCents: item.Product.PriceCents,
			Quantity:   item.Quantity,
		}
		order.TotalCents += line.PriceCents * int64(line.Quantity)
		order.Items = append(order.Items, line)
	}
	return order
}

// raiseLowStockAlerts re-reads stock inside the transaction. The values
// loaded with the cart are stale once concurrent checkouts have committed,
// so only the post-decrement rows decide whether a threshold was crossed.
func (s *service) raiseLowStockAlerts(ctx context.Context, tx *gorm.DB, items []models.CartItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var products []models.Product
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock")
	}
	for i := range products {
		if products[i].Stock > s.lowStockThreshold {
			continue
		}
		if err := s.notifier.NotifyLowStock(ctx, tx, &products[i], products[i].Stock); err != nil {
			return err
		}
	}
	return nil
}

// insufficientStockError folds every violation into one STATE_CONFLICT error
// whose details drive the API payload; multierr keeps the per-line causes in
// the logged chain.
func insufficientStockError(violations []StockViolation) error {
	var combined error
	for _, v := range violations {
		combined = multierr.Append(combined, fmt.Errorf("product %s: requested %d, available %d", v.ProductID, v.Requested, v.Available))
	}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, combined, "insufficient stock").
		WithDetails(map[string]any{"items": violations})
}
