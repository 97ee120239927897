package service

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
)

var tracer = otel.Tracer("service/checkout")

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (*payment.Intent, error)
	ExpectedSignature(intentID, paymentID string) string
	KeyID() string
}

type CheckoutService struct {
	Repo     *repo.GormRepo
	Cart     *CartService
	Gateway  PaymentGateway
	Shipping pricing.Shipping
	Currency string
	Events   EventPublisher
}

type CheckoutResult struct {
	Order       *models.Order
	IntentID    string
	AmountMinor int64
	Currency    string
	KeyID       string
}

type VerifyInput struct {
	OrderID   uuid.UUID
	IntentID  string
	PaymentID string
	Signature string
}

// CreateOrder turns the user's cart into a pending order and opens a payment
// intent for it. The order row exists before the gateway is called.
func (s *CheckoutService) CreateOrder(ctx context.Context, userID uuid.UUID, shipping *models.ShippingAddress) (res *CheckoutResult, err error) {
	ctx, span := tracer.Start(ctx, "checkout.create_order")
	span.SetAttributes(attribute.String("user.id", userID.String()))
	defer func() {
		metrics.Checkout.WithLabelValues("create_order", metrics.Result(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	l := logging.FromContext(ctx).With("svc", "checkout.create_order", "user_id", userID)

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	if strings.TrimSpace(user.Phone) == "" || strings.TrimSpace(user.Address) == "" {
		return nil, fmt.Errorf("profile needs phone and address: %w", ErrPreconditionFailed)
	}

	cart, err := s.Cart.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, fmt.Errorf("cart is empty: %w", ErrInvalidState)
	}

	lines, err := s.orderLines(ctx, cart)
	if err != nil {
		return nil, err
	}

	quote := s.Shipping.Quote(cart.TotalPrice)
	order := &models.Order{
		UserID:      userID,
		Items:       lines,
		Subtotal:    quote.Subtotal,
		ShippingFee: quote.ShippingFee,
		TotalAmount: quote.Amount,
		Currency:    s.Currency,
		Status:      models.OrderStatusPending,
		Shipping:    shippingFor(user, shipping),
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	intent, gwErr := s.Gateway.CreateIntent(ctx, quote.AmountMinor, s.Currency, order.ID.String())
	if gwErr != nil {
		order.Status = models.OrderStatusCancelled
		if err := s.Repo.UpdateOrder(ctx, order, models.OrderStatusPending, "status"); err != nil {
			l.Error("cancel_order_error", "order_id", order.ID, "error", err)
		}
		l.Warn("create_intent_error", "order_id", order.ID, "error", gwErr)
		return nil, fmt.Errorf("create payment intent: %w: %v", ErrUpstream, gwErr)
	}

	order.IntentID = intent.ID
	if err := s.Repo.UpdateOrder(ctx, order, models.OrderStatusPending, "intent_id"); err != nil {
		if errors.Is(err, repo.ErrStaleRevision) {
			return nil, fmt.Errorf("order %s is no longer pending: %w", order.ID, ErrInvalidState)
		}
		return nil, fmt.Errorf("attach intent: %w", err)
	}

	publish(ctx, s.Events, mykafka.TopicOrder, order.ID.String(), OrderEvent{
		Type: "order_created", OrderID: order.ID.String(), UserID: userID.String(),
		Status: string(order.Status), Amount: order.TotalAmount.String(), IntentID: order.IntentID,
		At: time.Now().UTC(),
	})
	l.Info("order_created", "order_id", order.ID, "intent_id", order.IntentID, "amount_minor", quote.AmountMinor)

	return &CheckoutResult{
		Order:       order,
		IntentID:    intent.ID,
		AmountMinor: quote.AmountMinor,
		Currency:    s.Currency,
		KeyID:       s.Gateway.KeyID(),
	}, nil
}

// VerifyPayment checks the gateway signature and completes the order.
// Repeating a successful verification returns the completed order unchanged.
func (s *CheckoutService) VerifyPayment(ctx context.Context, userID uuid.UUID, in VerifyInput) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "checkout.verify_payment")
	span.SetAttributes(attribute.String("order.id", in.OrderID.String()))
	defer func() {
		metrics.Checkout.WithLabelValues("verify_payment", metrics.Result(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	l := logging.FromContext(ctx).With("svc", "checkout.verify_payment", "user_id", userID, "order_id", in.OrderID)

	if in.OrderID == uuid.Nil || in.IntentID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, fmt.Errorf("orderId, intentId, paymentId and signature are required: %w", ErrValidation)
	}

	for attempt := 0; attempt < 2; attempt++ {
		order, err = s.GetUserOrder(ctx, userID, in.OrderID)
		if err != nil {
			return nil, err
		}
		if order.IntentID == "" || order.IntentID != in.IntentID {
			return nil, fmt.Errorf("intent does not match order: %w", ErrVerificationFailed)
		}
		expected := s.Gateway.ExpectedSignature(in.IntentID, in.PaymentID)
		if !hmac.Equal([]byte(expected), []byte(in.Signature)) {
			l.Warn("signature_mismatch")
			return nil, fmt.Errorf("signature mismatch: %w", ErrVerificationFailed)
		}

		switch order.Status {
		case models.OrderStatusCompleted:
			if order.PaymentID != in.PaymentID {
				return nil, fmt.Errorf("order already paid by another payment: %w", ErrInvalidState)
			}
			return order, nil
		case models.OrderStatusCancelled, models.OrderStatusFailed:
			return nil, fmt.Errorf("order is %s: %w", order.Status, ErrInvalidState)
		}

		paidAt := time.Now().UTC()
		order.Status = models.OrderStatusCompleted
		order.PaymentID = in.PaymentID
		order.PaidAt = &paidAt
		err = s.Repo.UpdateOrder(ctx, order, models.OrderStatusPending, "status", "payment_id", "paid_at")
		if errors.Is(err, repo.ErrStaleRevision) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if _, err := s.Cart.Clear(ctx, userID); err != nil {
			l.Error("clear_cart_error", "error", err)
		}

		publish(ctx, s.Events, mykafka.TopicOrder, order.ID.String(), OrderEvent{
			Type: "order_completed", OrderID: order.ID.String(), UserID: userID.String(),
			Status: string(order.Status), Amount: order.TotalAmount.String(),
			IntentID: order.IntentID, PaymentID: order.PaymentID, At: paidAt,
		})
		l.Info("payment_verified", "payment_id", order.PaymentID)
		return order, nil
	}
	return nil, fmt.Errorf("order %s changed concurrently: %w", in.OrderID, ErrConflict)
}

// ReconcileStale cancels pending orders whose payment intent was never attached.
func (s *CheckoutService) ReconcileStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.Repo.CancelOrphanedOrders(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.OrdersReconciled.Add(float64(n))
		logging.FromContext(ctx).Info("orphaned_orders_cancelled", "count", n)
	}
	return n, nil
}

// RunSweeper calls ReconcileStale every interval until ctx is done.
func (s *CheckoutService) RunSweeper(ctx context.Context, interval, olderThan time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.ReconcileStale(ctx, olderThan); err != nil {
				logging.FromContext(ctx).Error("reconcile_error", "error", err)
			}
		}
	}
}

func (s *CheckoutService) ListUserOrders(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, int64, error) {
	return s.Repo.ListOrders(ctx, repo.OrderFilter{UserID: userID, Offset: offset, Limit: limit})
}

// GetUserOrder hides orders of other users behind ErrNotFound.
func (s *CheckoutService) GetUserOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return order, nil
}

func (s *CheckoutService) orderLines(ctx context.Context, cart *models.Cart) ([]models.OrderLine, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	lines := make([]models.OrderLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, models.OrderLine{
			ProductID: it.ProductID,
			Name:      names[it.ProductID],
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return lines, nil
}

// shippingFor fills unset override fields from the profile.
func shippingFor(u *models.User, override *models.ShippingAddress) models.ShippingAddress {
	out := models.ShippingAddress{
		Name:    u.Name,
		Address: u.Address,
		City:    u.City,
		State:   u.State,
		Pincode: u.Pincode,
		Phone:   u.Phone,
	}
	if override == nil {
		return out
	}
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Address != "" {
		out.Address = override.Address
	}
	if override.City != "" {
		out.City = override.City
	}
	if override.State != "" {
		out.State = override.State
	}
	if override.Pincode != "" {
		out.Pincode = override.Pincode
	}
	if override.Phone != "" {
		out.Phone = override.Phone
	}
	return out
}
