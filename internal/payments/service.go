package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearvault/gearvault-backend/internal/orders"
	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/gateway"
	"github.com/gearvault/gearvault-backend/pkg/logger"
)

type gatewayClient interface {
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.GatewayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

// Service bridges local orders and the payment gateway.
type Service interface {
	CreateGatewayOrder(ctx context.Context, userID, orderID uuid.UUID) (*GatewayOrderResult, error)
	Confirm(ctx context.Context, userID uuid.UUID, input ConfirmInput) (*models.Order, error)
}

// GatewayOrderResult is handed to the client to start payment collection.
type GatewayOrderResult struct {
	OrderID        uuid.UUID `json:"order_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
}

// ConfirmInput carries the gateway callback payload.
type ConfirmInput struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
}

type service struct {
	ordersRepo *orders.Repository
	client     gatewayClient
	currency   string
	logg       *logger.Logger
}

// NewService wires payment dependencies.
func NewService(ordersRepo *orders.Repository, client gatewayClient, currency string, logg *logger.Logger) (Service, error) {
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway client required")
	}
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}
	return &service{
		ordersRepo: ordersRepo,
		client:     client,
		currency:   strings.ToUpper(strings.TrimSpace(currency)),
		logg:       logg,
	}, nil
}

// CreateGatewayOrder registers a PENDING unpaid order with the gateway and
// records the returned gateway order id.
func (s *service) CreateGatewayOrder(ctx context.Context, userID, orderID uuid.UUID) (*GatewayOrderResult, error) {
	order, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusUnpaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s/%s cannot start payment", order.Status, order.PaymentStatus))
	}
	if order.GatewayOrderID != nil {
		return &GatewayOrderResult{
			OrderID:        order.ID,
			GatewayOrderID: *order.GatewayOrderID,
			AmountCents:    order.TotalCents,
			Currency:       s.currency,
		}, nil
	}

	created, err := s.client.CreateOrder(ctx, gateway.CreateOrderRequest{
		AmountCents: order.TotalCents,
		Currency:    s.currency,
		Receipt:     order.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	order.GatewayOrderID = &created.ID
	if err := s.ordersRepo.UpdateStatus(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway order id")
	}

	return &GatewayOrderResult{
		OrderID:        order.ID,
		GatewayOrderID: created.ID,
		AmountCents:    order.TotalCents,
		Currency:       s.currency,
	}, nil
}

// Confirm validates the gateway signature and marks the order paid. A bad
// signature leaves the order untouched.
func (s *service) Confirm(ctx context.Context, userID uuid.UUID, input ConfirmInput) (*models.Order, error) {
	order, err := s.ordersRepo.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return order, nil
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be confirmed", order.Status))
	}

	if !s.client.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_id":         order.ID,
				"gateway_order_id": input.GatewayOrderID,
			}), "payments.signature_mismatch")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature mismatch")
	}

	order.Status = enums.OrderStatusConfirmed
	order.PaymentStatus = enums.PaymentStatusPaid
	order.GatewayPaymentID = &input.GatewayPaymentID
	if err := s.ordersRepo.UpdateStatus(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	return order, nil
}

func (s *service) loadOwnedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}
