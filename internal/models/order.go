package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed || s == OrderStatusCancelled
}

type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type ShippingAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"                       json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;index;not null"                   json:"userId"`
	Items       []OrderLine     `gorm:"type:text;serializer:json;not null"         json:"items"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null"                json:"subtotal"`
	ShippingFee decimal.Decimal `gorm:"type:numeric(14,2);not null"                json:"shippingFee"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"                json:"totalAmount"`
	Currency    string          `gorm:"type:varchar(8);not null"                   json:"currency"`
	IntentID    string          `gorm:"index"                                      json:"intentId"`
	PaymentID   string          `                                                  json:"paymentId,omitempty"`
	Status      OrderStatus     `gorm:"type:varchar(16);index;not null"            json:"status"`
	PaidAt      *time.Time      `                                                  json:"paidAt,omitempty"`
	Shipping    ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"          json:"shippingAddress"`
	CreatedAt   time.Time       `gorm:"index"                                      json:"createdAt"`
	UpdatedAt   time.Time       `                                                  json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
