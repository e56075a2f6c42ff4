package payments

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/internal/orders"
	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/gateway"
)

type stubGateway struct {
	created     []gateway.CreateOrderRequest
	nextOrderID string
	createErr   error
	validSig    string
}

func (s *stubGateway) CreateOrder(_ context.Context, req gateway.CreateOrderRequest) (*gateway.GatewayOrder, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, req)
	return &gateway.GatewayOrder{ID: s.nextOrderID, AmountCents: req.AmountCents, Currency: req.Currency}, nil
}

func (s *stubGateway) VerifyPaymentSignature(_, _, signature string) bool {
	return signature == s.validSig
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, totalCents int64) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusUnpaid,
		TotalCents:      totalCents,
		ShippingAddress: "42 Orbit Lane, Springfield",
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func newTestService(t *testing.T, gw *stubGateway) (Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(orders.NewRepository(conn), gw, "usd", nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestCreateGatewayOrder(t *testing.T) {
	gw := &stubGateway{nextOrderID: "order_gw_1"}
	svc, conn := newTestService(t, gw)
	ctx := context.Background()
	userID := uuid.New()
	order := seedOrder(t, conn, userID, 45900)

	result, err := svc.CreateGatewayOrder(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("create gateway order: %v", err)
	}
	if result.GatewayOrderID != "order_gw_1" {
		t.Fatalf("unexpected gateway order id %q", result.GatewayOrderID)
	}
	if result.AmountCents != 45900 || result.Currency != "USD" {
		t.Fatalf("unexpected amount/currency %d %s", result.AmountCents, result.Currency)
	}
	if len(gw.created) != 1 || gw.created[0].Receipt != order.ID.String() {
		t.Fatalf("gateway call mismatch %+v", gw.created)
	}

	var stored models.Order
	if err := conn.First(&stored, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if stored.GatewayOrderID == nil || *stored.GatewayOrderID != "order_gw_1" {
		t.Fatal("expected gateway order id persisted")
	}

	// A repeat call reuses the stored gateway order instead of creating another.
	again, err := svc.CreateGatewayOrder(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("repeat create: %v", err)
	}
	if again.GatewayOrderID != "order_gw_1" || len(gw.created) != 1 {
		t.Fatal("expected reuse of existing gateway order")
	}
}

func TestCreateGatewayOrderForbidden(t *testing.T) {
	gw := &stubGateway{nextOrderID: "order_gw_2"}
	svc, conn := newTestService(t, gw)
	order := seedOrder(t, conn, uuid.New(), 1000)

	_, err := svc.CreateGatewayOrder(context.Background(), uuid.New(), order.ID)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error got %v", err)
	}
}

func TestConfirmHappyPath(t *testing.T) {
	gw := &stubGateway{nextOrderID: "order_gw_3", validSig: "good-sig"}
	svc, conn := newTestService(t, gw)
	ctx := context.Background()
	userID := uuid.New()
	order := seedOrder(t, conn, userID, 99900)

	if _, err := svc.CreateGatewayOrder(ctx, userID, order.ID); err != nil {
		t.Fatalf("create gateway order: %v", err)
	}

	confirmed, err := svc.Confirm(ctx, userID, ConfirmInput{
		GatewayOrderID:   "order_gw_3",
		GatewayPaymentID: "pay_1",
		Signature:        "good-sig",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed got %s", confirmed.Status)
	}
	if confirmed.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid got %s", confirmed.PaymentStatus)
	}
	if confirmed.GatewayPaymentID == nil || *confirmed.GatewayPaymentID != "pay_1" {
		t.Fatal("expected payment id stored")
	}
}

func TestConfirmBadSignatureLeavesOrderUntouched(t *testing.T) {
	gw := &stubGateway{nextOrderID: "order_gw_4", validSig: "good-sig"}
	svc, conn := newTestService(t, gw)
	ctx := context.Background()
	userID := uuid.New()
	order := seedOrder(t, conn, userID, 99900)

	if _, err := svc.CreateGatewayOrder(ctx, userID, order.ID); err != nil {
		t.Fatalf("create gateway order: %v", err)
	}

	_, err := svc.Confirm(ctx, userID, ConfirmInput{
		GatewayOrderID:   "order_gw_4",
		GatewayPaymentID: "pay_1",
		Signature:        "forged",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}

	var stored models.Order
	if err := conn.First(&stored, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if stored.Status != enums.OrderStatusPending || stored.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("order mutated on bad signature: %s/%s", stored.Status, stored.PaymentStatus)
	}
}

func TestConfirmIsIdempotentOncePaid(t *testing.T) {
	gw := &stubGateway{nextOrderID: "order_gw_5", validSig: "good-sig"}
	svc, conn := newTestService(t, gw)
	ctx := context.Background()
	userID := uuid.New()
	order := seedOrder(t, conn, userID, 1000)

	if _, err := svc.CreateGatewayOrder(ctx, userID, order.ID); err != nil {
		t.Fatalf("create gateway order: %v", err)
	}
	input := ConfirmInput{GatewayOrderID: "order_gw_5", GatewayPaymentID: "pay_9", Signature: "good-sig"}
	if _, err := svc.Confirm(ctx, userID, input); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	again, err := svc.Confirm(ctx, userID, input)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if again.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid got %s", again.PaymentStatus)
	}
}
