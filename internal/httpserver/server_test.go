package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var jwtSecret = []byte("http-test-secret")

const gatewaySecret = "http-gateway-secret"

type fakeGateway struct{ fail bool }

func (g *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, currency, receipt string) (*payment.Intent, error) {
	if g.fail {
		return nil, errors.New("gateway down")
	}
	return &payment.Intent{ID: "order_" + receipt[:8], Amount: amountMinor, Currency: currency, Receipt: receipt}, nil
}

func (g *fakeGateway) ExpectedSignature(intentID, paymentID string) string {
	return payment.Sign(gatewaySecret, intentID, paymentID)
}

func (g *fakeGateway) KeyID() string { return "rzp_test" }

type testEnv struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	gateway *fakeGateway
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := repo.New(testutil.InitTestDB(t))
	gw := &fakeGateway{}
	events := service.NopPublisher{}

	cartSvc := &service.CartService{Repo: r, Events: events}
	deps := &Deps{
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Repo: r, JWTSecret: jwtSecret, TokenTTL: time.Hour, ResetTokenTTL: 15 * time.Minute, Events: events,
		}},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: events}},
		CartHandler:    &CartHTTP{Svc: cartSvc},
		CheckoutHandler: &CheckoutHTTP{Svc: &service.CheckoutService{
			Repo: r, Cart: cartSvc, Gateway: gw, Shipping: pricing.DefaultShipping(), Currency: "INR", Events: events,
		}},
		AdminHandler: &AdminHTTP{
			Orders:    &service.AdminOrderService{Repo: r, Currency: "INR", Events: events},
			Dashboard: &service.DashboardService{Repo: r},
		},
		JWTSecret: jwtSecret,
		Ready:     func(context.Context) error { return nil },
	}
	return &testEnv{e: New(logging.NewWithWriter(io.Discard, "error"), deps), repo: r, gateway: gw}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (env *testEnv) userToken(t *testing.T, email, role string, withProfile bool) (*models.User, string) {
	t.Helper()
	u := &models.User{Name: "Tester", Email: email, Role: role}
	if withProfile {
		u.Phone = "9876543210"
		u.Address = "42 Park Lane"
	}
	require.NoError(t, env.repo.CreateUser(context.Background(), u, "password1"))
	tok, _, err := tokens.IssueAccess(jwtSecret, u.ID, role, time.Hour)
	require.NoError(t, err)
	return u, tok
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ravi", "email": "Ravi@Example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusCreated, code, body.Message)
	assert.True(t, body.Status)
	assert.NotContains(t, string(body.Data), "secret12")
	assert.NotContains(t, string(body.Data), "passwordHash")

	code, body = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "password": "secret12",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, body.Status)

	code, body = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ravi@example.com", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, body.Status)

	code, body = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ravi@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))
	require.NotEmpty(t, login.Token)

	code, body = env.do(t, http.MethodPut, "/api/auth/profile", login.Token, map[string]string{"phone": "123", "address": "Home"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Profile updated successfully.", body.Message)

	code, _ = env.do(t, http.MethodGet, "/api/auth/users", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = env.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No token, authorization denied", body.Message)

	code, body = env.do(t, http.MethodGet, "/api/auth/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token is not valid", body.Message)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.userToken(t, "forgot@example.com", models.RoleUser, false)

	code, body := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "forgot@example.com"})
	require.Equal(t, http.StatusOK, code)
	var fp struct {
		ResetToken string `json:"resetToken"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &fp))

	code, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": fp.ResetToken, "password": "fresh-pass"})
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "forgot@example.com", "password": "fresh-pass"})
	assert.Equal(t, http.StatusOK, code)
}

func TestProductAdminGate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, userTok := env.userToken(t, "shopper@example.com", models.RoleUser, false)
	_, adminTok := env.userToken(t, "boss@example.com", models.RoleAdmin, false)

	req := map[string]any{"name": "Mixer", "originalPrice": "2000", "discount": 10, "price": "1"}
	code, _ := env.do(t, http.MethodPost, "/api/products", userTok, req)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := env.do(t, http.MethodPost, "/api/products", adminTok, req)
	require.Equal(t, http.StatusCreated, code, body.Message)
	var p models.Product
	require.NoError(t, json.Unmarshal(body.Data, &p))
	assert.True(t, decimal.NewFromInt(1800).Equal(p.Price), "client price is ignored")

	code, body = env.do(t, http.MethodGet, "/api/products/"+p.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Product fetched successfully", body.Message)

	code, _ = env.do(t, http.MethodGet, "/api/products/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = env.do(t, http.MethodGet, "/api/products/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, body.Status)

	code, body = env.do(t, http.MethodGet, "/api/products/search?q=mix", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.EqualValues(t, 1, list.Total)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	_, tok := env.userToken(t, "buyer@example.com", models.RoleUser, true)

	p := &models.Product{Name: "Chair", OriginalPrice: decimal.NewFromInt(600), Price: decimal.NewFromInt(600), InStock: true, ImageURLs: []string{}}
	require.NoError(t, env.repo.CreateProduct(ctx, p))

	code, _ := env.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := env.do(t, http.MethodPost, "/api/cart/add", tok, map[string]any{"productId": p.ID, "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, body.Status)

	code, body = env.do(t, http.MethodPost, "/api/cart/add", tok, map[string]any{"productId": p.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodPost, "/api/cart/add", tok, map[string]any{"productId": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, code, body.Message)
	var cart models.Cart
	require.NoError(t, json.Unmarshal(body.Data, &cart))
	assert.True(t, decimal.NewFromInt(1200).Equal(cart.TotalPrice))

	code, body = env.do(t, http.MethodPost, "/api/checkout/create-order", tok, nil)
	require.Equal(t, http.StatusCreated, code, body.Message)
	var created struct {
		Order    models.Order `json:"order"`
		IntentID string       `json:"intentId"`
		Amount   int64        `json:"amount"`
		KeyID    string       `json:"keyId"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.EqualValues(t, 120000, created.Amount)
	assert.Equal(t, "rzp_test", created.KeyID)
	assert.True(t, created.Order.ShippingFee.IsZero())

	verify := map[string]any{
		"orderId":   created.Order.ID,
		"intentId":  created.IntentID,
		"paymentId": "pay_42",
		"signature": "deadbeef",
	}
	code, body = env.do(t, http.MethodPost, "/api/checkout/verify-payment", tok, verify)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, body.Status)

	verify["signature"] = payment.Sign(gatewaySecret, created.IntentID, "pay_42")
	for i := 0; i < 2; i++ {
		code, body = env.do(t, http.MethodPost, "/api/checkout/verify-payment", tok, verify)
		require.Equal(t, http.StatusOK, code, body.Message)
		var order models.Order
		require.NoError(t, json.Unmarshal(body.Data, &order))
		assert.Equal(t, models.OrderStatusCompleted, order.Status)
	}

	code, body = env.do(t, http.MethodGet, "/api/cart", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Cart is empty", body.Message)

	code, body = env.do(t, http.MethodGet, "/api/checkout/payment/"+created.Order.ID.String(), tok, nil)
	require.Equal(t, http.StatusOK, code)

	_, otherTok := env.userToken(t, "other@example.com", models.RoleUser, true)
	code, _ = env.do(t, http.MethodGet, "/api/checkout/payment/"+created.Order.ID.String(), otherTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCheckoutErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	_, bare := env.userToken(t, "bare@example.com", models.RoleUser, false)
	_, tok := env.userToken(t, "full@example.com", models.RoleUser, true)

	code, _ := env.do(t, http.MethodPost, "/api/checkout/create-order", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code, "empty cart")

	p := &models.Product{Name: "Desk", OriginalPrice: decimal.NewFromInt(100), Price: decimal.NewFromInt(100), InStock: true, ImageURLs: []string{}}
	require.NoError(t, env.repo.CreateProduct(ctx, p))
	for _, tk := range []string{bare, tok} {
		code, _ = env.do(t, http.MethodPost, "/api/cart/add", tk, map[string]any{"productId": p.ID, "quantity": 1})
		require.Equal(t, http.StatusOK, code)
	}

	code, _ = env.do(t, http.MethodPost, "/api/checkout/create-order", bare, nil)
	assert.Equal(t, http.StatusBadRequest, code, "profile incomplete")

	env.gateway.fail = true
	code, body := env.do(t, http.MethodPost, "/api/checkout/create-order", tok, nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Payment gateway error", body.Message)
}

func TestAdminOrders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	buyer, userTok := env.userToken(t, "cust@example.com", models.RoleUser, true)
	_, adminTok := env.userToken(t, "root@example.com", models.RoleAdmin, false)

	p := &models.Product{Name: "Sofa", OriginalPrice: decimal.NewFromInt(5000), Price: decimal.NewFromInt(5000), InStock: true, ImageURLs: []string{}}
	require.NoError(t, env.repo.CreateProduct(ctx, p))

	code, _ := env.do(t, http.MethodGet, "/api/admin/orders", userTok, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := env.do(t, http.MethodPost, "/api/admin/orders", adminTok, map[string]any{
		"userId":      buyer.ID,
		"items":       []map[string]any{{"productId": p.ID, "quantity": 1}},
		"totalAmount": "5000",
		"status":      "completed",
	})
	require.Equal(t, http.StatusCreated, code, body.Message)
	var order models.Order
	require.NoError(t, json.Unmarshal(body.Data, &order))
	assert.Contains(t, order.IntentID, "ADMIN-")

	code, body = env.do(t, http.MethodPut, "/api/admin/orders/"+order.ID.String(), adminTok, map[string]any{"totalAmount": "1"})
	assert.Equal(t, http.StatusBadRequest, code)

	today := time.Now().UTC().Format("2006-01-02")
	code, body = env.do(t, http.MethodGet, "/api/admin/orders?status=completed&from="+today+"&to="+today, adminTok, nil)
	require.Equal(t, http.StatusOK, code, body.Message)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.EqualValues(t, 1, list.Total)

	code, body = env.do(t, http.MethodGet, "/api/admin/dashboard", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	var stats struct {
		TotalRevenue decimal.Decimal `json:"totalRevenue"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.True(t, decimal.NewFromInt(5000).Equal(stats.TotalRevenue))

	code, _ = env.do(t, http.MethodDelete, "/api/admin/orders/"+order.ID.String(), adminTok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, "/api/admin/orders/"+order.ID.String(), adminTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
