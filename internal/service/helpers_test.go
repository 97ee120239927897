package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

const testSecret = "gateway-secret"

type recordedEvent struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		switch ev := e.Event.(type) {
		case CartEvent:
			out = append(out, ev.Type)
		case OrderEvent:
			out = append(out, ev.Type)
		case ProductEvent:
			out = append(out, ev.Type)
		case UserEvent:
			out = append(out, ev.Type)
		}
	}
	return out
}

type stubGateway struct {
	mu       sync.Mutex
	fail     bool
	calls    int
	receipts []string
	amounts  []int64
}

func (g *stubGateway) CreateIntent(_ context.Context, amountMinor int64, currency, receipt string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail {
		return nil, errors.New("gateway unavailable")
	}
	g.receipts = append(g.receipts, receipt)
	g.amounts = append(g.amounts, amountMinor)
	return &payment.Intent{ID: "intent_" + receipt, Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (g *stubGateway) ExpectedSignature(intentID, paymentID string) string {
	return payment.Sign(testSecret, intentID, paymentID)
}

func (g *stubGateway) KeyID() string { return "key_test" }

type fixture struct {
	repo     *repo.GormRepo
	events   *recordingPublisher
	gateway  *stubGateway
	cart     *CartService
	checkout *CheckoutService
	admin    *AdminOrderService
	catalog  *CatalogService
	auth     *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := repo.New(testutil.InitTestDB(t))
	ev := &recordingPublisher{}
	gw := &stubGateway{}
	cart := &CartService{Repo: r, Events: ev}
	return &fixture{
		repo:    r,
		events:  ev,
		gateway: gw,
		cart:    cart,
		checkout: &CheckoutService{
			Repo: r, Cart: cart, Gateway: gw, Shipping: pricing.DefaultShipping(), Currency: "INR", Events: ev,
		},
		admin:   &AdminOrderService{Repo: r, Currency: "INR", Events: ev},
		catalog: &CatalogService{Repo: r, Events: ev},
		auth: &AuthService{
			Repo: r, JWTSecret: []byte("jwt-secret"), TokenTTL: time.Hour, ResetTokenTTL: 15 * time.Minute, Events: ev,
		},
	}
}

func (f *fixture) product(t *testing.T, name string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:          name,
		OriginalPrice: decimal.NewFromInt(price),
		Price:         decimal.NewFromInt(price),
		InStock:       true,
		ImageURLs:     []string{},
	}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) user(t *testing.T, email string, withProfile bool) *models.User {
	t.Helper()
	u := &models.User{Name: "Buyer", Email: email, Role: models.RoleUser}
	if withProfile {
		u.Phone = "9999999999"
		u.Address = "1 Main Street"
		u.City = "Pune"
		u.State = "MH"
		u.Pincode = "411001"
	}
	require.NoError(t, f.repo.CreateUser(context.Background(), u, "password1"))
	return u
}
