package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/logging"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }

// publish never fails the caller; delivery problems are only logged.
func publish(ctx context.Context, p EventPublisher, topic, key string, event any) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "key", key, "error", err)
	}
}

type CartEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id,omitempty"`
	Delta     int       `json:"delta,omitempty"`
	Total     string    `json:"total"`
	Revision  int64     `json:"revision"`
	At        time.Time `json:"at"`
}

type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount"`
	IntentID  string    `json:"intent_id,omitempty"`
	PaymentID string    `json:"payment_id,omitempty"`
	At        time.Time `json:"at"`
}

type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id"`
	Price     string    `json:"price,omitempty"`
	At        time.Time `json:"at"`
}

type UserEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	At     time.Time `json:"at"`
}
