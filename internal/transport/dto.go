package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Envelope wraps every response body.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordResponse struct {
	ResetToken string `json:"resetToken"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Pincode  *string `json:"pincode"`
	ImageURL *string `json:"imageUrl"`
}

type UsersRoleRequest struct {
	UserIDs []uuid.UUID `json:"userIds"`
	Role    string      `json:"role"`
}

// ProductRequest is used for create and partial update. Price is always derived.
type ProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Brand         *string          `json:"brand"`
	Category      *string          `json:"category"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Discount      *int             `json:"discount"`
	InStock       *bool            `json:"inStock"`
	IsNew         *bool            `json:"isNew"`
	ImageURLs     *[]string        `json:"imageUrls"`
}

type ProductList struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
	Products []models.Product `json:"products"`
}

type CartItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type CartRemoveRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

type CreateOrderRequest struct {
	Shipping *models.ShippingAddress `json:"shippingAddress"`
}

type CreateOrderResponse struct {
	Order       *models.Order `json:"order"`
	IntentID    string        `json:"intentId"`
	AmountMinor int64         `json:"amount"`
	Currency    string        `json:"currency"`
	KeyID       string        `json:"keyId,omitempty"`
}

type VerifyPaymentRequest struct {
	IntentID  string    `json:"intentId"`
	PaymentID string    `json:"paymentId"`
	Signature string    `json:"signature"`
	OrderID   uuid.UUID `json:"orderId"`
}

type OrderList struct {
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Size   int            `json:"size"`
	Orders []models.Order `json:"orders"`
}

type AdminOrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type AdminCreateOrderRequest struct {
	UserID      uuid.UUID               `json:"userId"`
	Items       []AdminOrderItem        `json:"items"`
	TotalAmount decimal.Decimal         `json:"totalAmount"`
	Status      models.OrderStatus      `json:"status"`
	Shipping    *models.ShippingAddress `json:"shippingAddress"`
}

type AdminUpdateOrderRequest struct {
	Status      *models.OrderStatus     `json:"status"`
	Items       *[]AdminOrderItem       `json:"items"`
	TotalAmount *decimal.Decimal        `json:"totalAmount"`
	PaymentID   *string                 `json:"paymentId"`
	Shipping    *models.ShippingAddress `json:"shippingAddress"`
}

type DashboardStats struct {
	TotalUsers    int64           `json:"totalUsers"`
	TotalProducts int64           `json:"totalProducts"`
	TotalOrders   int64           `json:"totalOrders"`
	PendingOrders int64           `json:"pendingOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}
