package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"        json:"id"`
	Name         string     `gorm:"not null"                    json:"name"`
	Email        string     `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string     `gorm:"not null"                    json:"-"`
	Role         string     `gorm:"type:varchar(16);not null"   json:"role"`
	Phone        string     `                                   json:"phone"`
	Address      string     `                                   json:"address"`
	City         string     `                                   json:"city"`
	State        string     `                                   json:"state"`
	Pincode      string     `                                   json:"pincode"`
	ImageURL     string     `gorm:"column:image_url"            json:"imageUrl"`
	LastLogin    *time.Time `                                   json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `                                   json:"createdAt"`
	UpdatedAt    time.Time  `                                   json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"                   json:"id"`
	Name          string          `gorm:"not null"                               json:"name"`
	Description   string          `                                              json:"description"`
	Brand         string          `                                              json:"brand"`
	Category      string          `gorm:"index"                                  json:"category"`
	OriginalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"            json:"originalPrice"`
	Discount      int             `gorm:"not null"                               json:"discount"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"            json:"price"`
	InStock       bool            `gorm:"not null"                               json:"inStock"`
	IsNew         bool            `gorm:"not null"                               json:"isNew"`
	ImageURLs     []string        `gorm:"column:image_urls;type:text;serializer:json" json:"imageUrls"`
	CreatedAt     time.Time       `                                              json:"createdAt"`
	UpdatedAt     time.Time       `                                              json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
