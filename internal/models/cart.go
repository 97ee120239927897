package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one product entry of a cart. Price is the snapshot taken when the
// line was last touched by an add.
type CartLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Cart is stored as a single row: the line set is one JSON column, so every
// mutation is a single write guarded by Revision.
type Cart struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"                json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"      json:"userId"`
	Items      []CartLine      `gorm:"type:text;serializer:json;not null"  json:"items"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(14,2);not null"         json:"totalPrice"`
	Revision   int64           `gorm:"not null"                            json:"revision"`
	CreatedAt  time.Time       `                                           json:"createdAt"`
	UpdatedAt  time.Time       `                                           json:"updatedAt"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Items == nil {
		c.Items = []CartLine{}
	}
	return nil
}

func (Cart) TableName() string {
	return "carts"
}

func (c *Cart) Line(productID uuid.UUID) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i, true
		}
	}
	return -1, false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
