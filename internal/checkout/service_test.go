package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/internal/cart"
	"github.com/gearvault/gearvault-backend/internal/notifications"
	"github.com/gearvault/gearvault-backend/internal/orders"
	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T, threshold int) (Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)

	notifier, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(
		testTxRunner{db: conn},
		cart.NewRepository(conn),
		orders.NewRepository(conn),
		notifier,
		nil,
		threshold,
	)
	require.NoError(t, err)
	return svc, conn
}

func addCartLine(t *testing.T, conn *gorm.DB, userID uuid.UUID, product *models.Product, qty int) {
	t.Helper()
	require.NoError(t, conn.Create(&models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  qty,
	}).Error)
}

func TestExecuteCreatesOrderAndClearsCart(t *testing.T) {
	svc, conn := newTestService(t, 0)
	ctx := context.Background()
	userID := uuid.New()

	gpu := seedProduct(t, conn, "RTX 5080", 129900, 10)
	ram := seedProduct(t, conn, "DDR5 64GB", 25900, 10)
	addCartLine(t, conn, userID, gpu, 1)
	addCartLine(t, conn, userID, ram, 2)

	order, err := svc.Execute(ctx, userID, Input{ShippingAddress: "42 Orbit Lane, Springfield, OR 97477"})
	require.NoError(t, err)

	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	require.Equal(t, int64(129900+2*25900), order.TotalCents)

	require.Equal(t, 9, currentStock(t, conn, gpu.ID))
	require.Equal(t, 8, currentStock(t, conn, ram.ID))

	var cartCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	require.Zero(t, cartCount, "cart cleared after checkout")

	var persisted models.Order
	require.NoError(t, conn.Preload("Items").First(&persisted, "id = ?", order.ID).Error)
	var sum int64
	for _, item := range persisted.Items {
		sum += item.PriceCents * int64(item.Quantity)
	}
	require.Equal(t, persisted.TotalCents, sum, "total equals item snapshot sum")
}

func TestExecuteRejectsEmptyCart(t *testing.T) {
	svc, _ := newTestService(t, 0)

	_, err := svc.Execute(context.Background(), uuid.New(), Input{ShippingAddress: "42 Orbit Lane, Springfield"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestExecuteRejectsMissingAddress(t *testing.T) {
	svc, _ := newTestService(t, 0)

	_, err := svc.Execute(context.Background(), uuid.New(), Input{ShippingAddress: "   "})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestExecuteRollsBackOnInsufficientStock(t *testing.T) {
	svc, conn := newTestService(t, 0)
	ctx := context.Background()
	userID := uuid.New()

	keyboard := seedProduct(t, conn, "Keyboard", 12900, 10)
	gpu := seedProduct(t, conn, "RTX 5090", 199900, 1)
	addCartLine(t, conn, userID, keyboard, 2)
	addCartLine(t, conn, userID, gpu, 3)

	_, err := svc.Execute(ctx, userID, Input{ShippingAddress: "42 Orbit Lane, Springfield"})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	violations, ok := details["items"].([]StockViolation)
	require.True(t, ok)
	require.Len(t, violations, 1)
	require.Equal(t, gpu.ID, violations[0].ProductID)

	require.Equal(t, 10, currentStock(t, conn, keyboard.ID), "successful line rolled back")
	require.Equal(t, 1, currentStock(t, conn, gpu.ID))

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount, "no partial orders")

	var cartCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	require.Equal(t, int64(2), cartCount, "cart kept on failure")
}

func TestExecuteSequentialContention(t *testing.T) {
	svc, conn := newTestService(t, 0)
	ctx := context.Background()
	product := seedProduct(t, conn, "Contested GPU", 99900, 3)

	alice := uuid.New()
	bob := uuid.New()
	addCartLine(t, conn, alice, product, 2)
	addCartLine(t, conn, bob, product, 2)

	_, firstErr := svc.Execute(ctx, alice, Input{ShippingAddress: "1 First St, Springfield"})
	_, secondErr := svc.Execute(ctx, bob, Input{ShippingAddress: "2 Second St, Springfield"})

	require.NoError(t, firstErr)
	require.Error(t, secondErr)
	typed := pkgerrors.As(secondErr)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	require.Equal(t, 1, currentStock(t, conn, product.ID), "stock ends at 1, never negative")

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	require.Equal(t, int64(1), orderCount)
}

func TestLowStockAlertsUseCommittedStock(t *testing.T) {
	svc, conn := newTestService(t, 5)
	ctx := context.Background()

	low := seedProduct(t, conn, "Drained GPU", 99900, 4)
	high := seedProduct(t, conn, "Stacked SSD", 15900, 40)

	// Cart snapshots go stale once a concurrent checkout commits; alerts
	// must follow the rows, not the values loaded with the cart.
	staleLow := *low
	staleLow.Stock = 9
	staleHigh := *high
	staleHigh.Stock = 2
	items := []models.CartItem{
		{ID: uuid.New(), UserID: uuid.New(), ProductID: low.ID, Quantity: 1, Product: &staleLow},
		{ID: uuid.New(), UserID: uuid.New(), ProductID: high.ID, Quantity: 1, Product: &staleHigh},
	}

	require.NoError(t, svc.(*service).raiseLowStockAlerts(ctx, conn, items))

	var alerts []models.Notification
	require.NoError(t, conn.Find(&alerts).Error)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].ProductID)
	require.Equal(t, low.ID, *alerts[0].ProductID)
}

func TestExecuteRaisesLowStockAlerts(t *testing.T) {
	svc, conn := newTestService(t, 5)
	ctx := context.Background()
	userID := uuid.New()

	product := seedProduct(t, conn, "Cooler", 8900, 6)
	addCartLine(t, conn, userID, product, 2)

	_, err := svc.Execute(ctx, userID, Input{ShippingAddress: "42 Orbit Lane, Springfield"})
	require.NoError(t, err)

	var alerts []models.Notification
	require.NoError(t, conn.Find(&alerts).Error)
	require.Len(t, alerts, 1)
	require.Equal(t, enums.NotificationTypeLowStock, alerts[0].Type)
	require.NotNil(t, alerts[0].ProductID)
	require.Equal(t, product.ID, *alerts[0].ProductID)
}
