package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ProductPrice derives the selling price from the list price and a percent discount.
func ProductPrice(original decimal.Decimal, discount int) decimal.Decimal {
	off := original.Mul(decimal.NewFromInt(int64(discount))).Div(hundred)
	return original.Sub(off).Round(2)
}

func ValidDiscount(discount int) bool {
	return discount >= 0 && discount <= 100
}

func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func CartTotal(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Price, l.Quantity))
	}
	return total
}

func OrderTotal(lines []models.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Price, l.Quantity))
	}
	return total
}

type Shipping struct {
	Threshold decimal.Decimal
	Fee       decimal.Decimal
}

func DefaultShipping() Shipping {
	return Shipping{Threshold: decimal.NewFromInt(1000), Fee: decimal.NewFromInt(99)}
}

// FeeFor is free strictly above the threshold.
func (s Shipping) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(s.Threshold) {
		return decimal.Zero
	}
	return s.Fee
}

type Quote struct {
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Amount      decimal.Decimal
	AmountMinor int64
}

func (s Shipping) Quote(subtotal decimal.Decimal) Quote {
	fee := s.FeeFor(subtotal)
	amount := subtotal.Add(fee)
	return Quote{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Amount:      amount,
		AmountMinor: ToMinorUnits(amount),
	}
}

// ToMinorUnits converts to the gateway's integer minor units, rounding half up.
// Amounts are never negative here, so decimal's half-away-from-zero is half-up.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
