package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const dateOnly = "2006-01-02"

type AdminOrderService struct {
	Repo     *repo.GormRepo
	Currency string
	Events   EventPublisher
}

// OrderQuery carries the raw admin list filters. From and To accept RFC 3339
// or a plain date; both bounds are inclusive.
type OrderQuery struct {
	Status string
	UserID string
	From   string
	To     string
	Offset int
	Limit  int
}

func (s *AdminOrderService) List(ctx context.Context, q OrderQuery) ([]models.Order, int64, error) {
	f := repo.OrderFilter{Offset: q.Offset, Limit: q.Limit}

	if q.Status != "" {
		st := models.OrderStatus(strings.ToLower(q.Status))
		if !st.Valid() {
			return nil, 0, fmt.Errorf("unknown status %q: %w", q.Status, ErrValidation)
		}
		f.Status = st
	}
	if q.UserID != "" {
		id, err := uuid.Parse(q.UserID)
		if err != nil {
			return nil, 0, fmt.Errorf("userId: %w", ErrValidation)
		}
		f.UserID = id
	}

	var err error
	if f.From, err = parseBound(q.From, false); err != nil {
		return nil, 0, err
	}
	if f.To, err = parseBound(q.To, true); err != nil {
		return nil, 0, err
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, 0, fmt.Errorf("from is after to: %w", ErrValidation)
	}

	return s.Repo.ListOrders(ctx, f)
}

func (s *AdminOrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if isNotFound(err) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, err
}

// CreateByAdmin records an order without the payment gateway.
func (s *AdminOrderService) CreateByAdmin(ctx context.Context, req transport.AdminCreateOrderRequest) (*models.Order, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("userId is required: %w", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required: %w", ErrValidation)
	}
	if !req.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("totalAmount must be positive: %w", ErrValidation)
	}
	status := models.OrderStatusPending
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("unknown status %q: %w", req.Status, ErrValidation)
		}
		status = req.Status
	}

	user, err := s.Repo.GetUser(ctx, req.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user %s: %w", req.UserID, ErrNotFound)
		}
		return nil, err
	}

	lines, err := s.orderLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	subtotal := pricing.OrderTotal(lines)
	fee := req.TotalAmount.Sub(subtotal)
	if fee.IsNegative() {
		fee = decimal.Zero
	}

	now := time.Now().UTC()
	order := &models.Order{
		UserID:      user.ID,
		Items:       lines,
		Subtotal:    subtotal,
		ShippingFee: fee,
		TotalAmount: req.TotalAmount,
		Currency:    s.Currency,
		IntentID:    fmt.Sprintf("ADMIN-%d", now.UnixMilli()),
		Status:      status,
		Shipping:    shippingFor(user, req.Shipping),
	}
	if status == models.OrderStatusCompleted {
		order.PaidAt = &now
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.emit(ctx, "order_created_by_admin", order)
	return order, nil
}

// Update applies an admin patch. Items and totals of a finished order are frozen.
func (s *AdminOrderService) Update(ctx context.Context, id uuid.UUID, req transport.AdminUpdateOrderRequest) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	observed := order.Status

	if observed.Terminal() && (req.Items != nil || req.TotalAmount != nil) {
		return nil, fmt.Errorf("order is %s, items and total are frozen: %w", observed, ErrInvalidOperation)
	}
	// A finished order never reopens, so its items and total stay frozen.
	if observed.Terminal() && req.Status != nil &&
		models.OrderStatus(strings.ToLower(string(*req.Status))) == models.OrderStatusPending {
		return nil, fmt.Errorf("order is %s and cannot return to pending: %w", observed, ErrInvalidOperation)
	}

	var cols []string
	if req.Items != nil {
		if len(*req.Items) == 0 {
			return nil, fmt.Errorf("at least one item is required: %w", ErrValidation)
		}
		lines, err := s.orderLines(ctx, *req.Items)
		if err != nil {
			return nil, err
		}
		order.Items = lines
		order.Subtotal = pricing.OrderTotal(lines)
		cols = append(cols, "items", "subtotal")
		if req.TotalAmount == nil {
			order.TotalAmount = order.Subtotal.Add(order.ShippingFee)
			cols = append(cols, "total_amount")
		}
	}
	if req.TotalAmount != nil {
		if !req.TotalAmount.IsPositive() {
			return nil, fmt.Errorf("totalAmount must be positive: %w", ErrValidation)
		}
		order.TotalAmount = *req.TotalAmount
		order.ShippingFee = decimal.Max(order.TotalAmount.Sub(order.Subtotal), decimal.Zero)
		cols = append(cols, "total_amount", "shipping_fee")
	}
	if req.PaymentID != nil {
		order.PaymentID = *req.PaymentID
		cols = append(cols, "payment_id")
	}
	if req.Shipping != nil {
		order.Shipping = *req.Shipping
		cols = append(cols, "shipping_name", "shipping_address", "shipping_city",
			"shipping_state", "shipping_pincode", "shipping_phone")
	}
	if req.Status != nil {
		st := models.OrderStatus(strings.ToLower(string(*req.Status)))
		if !st.Valid() {
			return nil, fmt.Errorf("unknown status %q: %w", *req.Status, ErrValidation)
		}
		order.Status = st
		cols = append(cols, "status")
		if st == models.OrderStatusCompleted && order.PaidAt == nil {
			now := time.Now().UTC()
			order.PaidAt = &now
			cols = append(cols, "paid_at")
		}
	}
	if len(cols) == 0 {
		return order, nil
	}

	if err := s.Repo.UpdateOrder(ctx, order, observed, cols...); err != nil {
		if errors.Is(err, repo.ErrStaleRevision) {
			return nil, fmt.Errorf("order %s changed concurrently: %w", id, ErrConflict)
		}
		return nil, err
	}
	s.emit(ctx, "order_updated", order)
	return order, nil
}

func (s *AdminOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return err
	}
	publish(ctx, s.Events, mykafka.TopicOrder, id.String(), OrderEvent{
		Type: "order_deleted", OrderID: id.String(), At: time.Now().UTC(),
	})
	return nil
}

// orderLines resolves names, and prices left at zero, from the catalog.
func (s *AdminOrderService) orderLines(ctx context.Context, items []transport.AdminOrderItem) ([]models.OrderLine, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.ProductID == uuid.Nil || it.Quantity <= 0 {
			return nil, fmt.Errorf("each item needs productId and a positive quantity: %w", ErrValidation)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("item price cannot be negative: %w", ErrValidation)
		}
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]models.OrderLine, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
		}
		price := it.Price
		if price.IsZero() {
			price = p.Price
		}
		lines = append(lines, models.OrderLine{ProductID: p.ID, Name: p.Name, Quantity: it.Quantity, Price: price})
	}
	return lines, nil
}

func (s *AdminOrderService) emit(ctx context.Context, typ string, o *models.Order) {
	publish(ctx, s.Events, mykafka.TopicOrder, o.ID.String(), OrderEvent{
		Type: typ, OrderID: o.ID.String(), UserID: o.UserID.String(), Status: string(o.Status),
		Amount: o.TotalAmount.String(), IntentID: o.IntentID, PaymentID: o.PaymentID, At: time.Now().UTC(),
	})
}

// parseBound reads a filter date. A date without a time covers the whole day.
func parseBound(v string, end bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", v, ErrValidation)
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
