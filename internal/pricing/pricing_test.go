package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/storefront/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		original string
		discount int
		want     string
	}{
		{name: "no discount", original: "100", discount: 0, want: "100"},
		{name: "ten percent", original: "1000", discount: 10, want: "900"},
		{name: "full discount", original: "250", discount: 100, want: "0"},
		{name: "rounds to paise", original: "99.99", discount: 15, want: "84.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ProductPrice(dec(tt.original), tt.discount)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestValidDiscount(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidDiscount(0))
	assert.True(t, ValidDiscount(100))
	assert.False(t, ValidDiscount(-1))
	assert.False(t, ValidDiscount(101))
}

func TestCartTotal(t *testing.T) {
	t.Parallel()

	lines := []models.CartLine{
		{ProductID: uuid.New(), Quantity: 2, Price: dec("100")},
		{ProductID: uuid.New(), Quantity: 3, Price: dec("19.99")},
	}
	assert.True(t, dec("259.97").Equal(CartTotal(lines)))
	assert.True(t, decimal.Zero.Equal(CartTotal(nil)))
}

func TestShippingQuote(t *testing.T) {
	t.Parallel()

	s := DefaultShipping()

	tests := []struct {
		name      string
		subtotal  string
		wantFee   string
		wantTotal string
		wantMinor int64
	}{
		{name: "above threshold ships free", subtotal: "1200", wantFee: "0", wantTotal: "1200", wantMinor: 120000},
		{name: "below threshold pays fee", subtotal: "500", wantFee: "99", wantTotal: "599", wantMinor: 59900},
		{name: "threshold itself pays fee", subtotal: "1000", wantFee: "99", wantTotal: "1099", wantMinor: 109900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := s.Quote(dec(tt.subtotal))
			assert.True(t, dec(tt.wantFee).Equal(q.ShippingFee), "fee %s", q.ShippingFee)
			assert.True(t, dec(tt.wantTotal).Equal(q.Amount), "amount %s", q.Amount)
			assert.Equal(t, tt.wantMinor, q.AmountMinor)
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{in: "599", want: 59900},
		{in: "10.005", want: 1001},
		{in: "10.004", want: 1000},
		{in: "0.015", want: 2},
		{in: "1234.56", want: 123456},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ToMinorUnits(dec(tt.in)))
		})
	}
}
