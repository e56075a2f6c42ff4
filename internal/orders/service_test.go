package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/pagination"
)

type testTxRunner struct {
	conn *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, testTxRunner{conn: conn})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Vortex K80 Keyboard",
		Brand:      "Vortex",
		PriceCents: 12900,
		Stock:      stock,
		IsActive:   true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, payment enums.PaymentStatus, items []models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          status,
		PaymentStatus:   payment,
		TotalCents:      0,
		ShippingAddress: "42 Orbit Lane, Springfield",
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = order.ID
		order.TotalCents += items[i].PriceCents * int64(items[i].Quantity)
	}
	order.Items = items
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestListForUserPagination(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		order := seedOrder(t, conn, userID, enums.OrderStatusPending, enums.PaymentStatusUnpaid, nil)
		// Spread created_at so cursor ordering is deterministic.
		stamp := time.Now().UTC().Add(time.Duration(-i) * time.Minute)
		if err := conn.Model(order).UpdateColumn("created_at", stamp).Error; err != nil {
			t.Fatalf("backdate order: %v", err)
		}
	}
	seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusUnpaid, nil)

	first, err := svc.ListForUser(ctx, userID, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Orders) != 3 || first.NextCursor == "" {
		t.Fatalf("expected full first page with cursor, got %d rows", len(first.Orders))
	}

	second, err := svc.ListForUser(ctx, userID, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Orders) != 2 || second.NextCursor != "" {
		t.Fatalf("expected final page of 2, got %d rows cursor %q", len(second.Orders), second.NextCursor)
	}

	seen := map[uuid.UUID]bool{}
	for _, row := range append(first.Orders, second.Orders...) {
		if seen[row.ID] {
			t.Fatalf("order %s returned twice", row.ID)
		}
		if row.UserID != userID {
			t.Fatal("foreign order leaked into listing")
		}
		seen[row.ID] = true
	}
}

func TestGetForUserForbidden(t *testing.T) {
	svc, _, conn := newTestService(t)
	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusUnpaid, nil)

	_, err := svc.GetForUser(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedProduct(t, conn, 1)
	order := seedOrder(t, conn, userID, enums.OrderStatusPending, enums.PaymentStatusUnpaid, []models.OrderItem{
		{ProductID: &product.ID, Name: product.Name, PriceCents: product.PriceCents, Quantity: 2},
	})

	cancelled, err := svc.Cancel(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}

	var reloaded models.Product
	if err := conn.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("expected stock restored to 3, got %d", reloaded.Stock)
	}
}

func TestCancelRejectsNonPending(t *testing.T) {
	svc, _, conn := newTestService(t)
	userID := uuid.New()
	order := seedOrder(t, conn, userID, enums.OrderStatusShipped, enums.PaymentStatusPaid, nil)

	_, err := svc.Cancel(context.Background(), userID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestChangeStatusTransitions(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusConfirmed, enums.PaymentStatusPaid, nil)

	shipped, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusShipped)
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if shipped.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped got %s", shipped.Status)
	}

	// Shipped orders cannot jump back to pending.
	_, err = svc.ChangeStatus(ctx, order.ID, enums.OrderStatusPending)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}

	if _, err := svc.ChangeStatus(ctx, order.ID, enums.OrderStatusDelivered); err != nil {
		t.Fatalf("deliver: %v", err)
	}
}

func TestChangeStatusRefundRequiresPaid(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()

	unpaid := seedOrder(t, conn, uuid.New(), enums.OrderStatusConfirmed, enums.PaymentStatusUnpaid, nil)
	_, err := svc.ChangeStatus(ctx, unpaid.ID, enums.OrderStatusRefunded)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}

	paid := seedOrder(t, conn, uuid.New(), enums.OrderStatusConfirmed, enums.PaymentStatusPaid, nil)
	refunded, err := svc.ChangeStatus(ctx, paid.ID, enums.OrderStatusRefunded)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment status got %s", refunded.PaymentStatus)
	}
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	svc, _, conn := newTestService(t)
	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, enums.PaymentStatusUnpaid, nil)

	_, err := svc.ChangeStatus(context.Background(), order.ID, enums.OrderStatus("teleported"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation got %v", err)
	}
}
