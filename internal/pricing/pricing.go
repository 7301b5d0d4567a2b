package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/supplyhub/cart-service/internal/domain"
)

var (
	freeShippingThreshold = decimal.NewFromInt(3000)
	baseShippingFee       = decimal.NewFromInt(500)
	hundred               = decimal.NewFromInt(100)
)

// Subtotal sums price × quantity over the given items.
func Subtotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// ShippingFee is tiered: free at or above the threshold, flat fee below.
func ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		return decimal.Zero
	}
	return baseShippingFee
}

// CouponDiscount computes the discount a coupon yields against the given
// pre-discount subtotal. A nil coupon yields zero. Percentage discounts are
// floored and capped at MaxDiscount; fixed discounts never exceed the
// subtotal; shipping coupons are worth exactly the shipping fee they waive.
func CouponDiscount(c *domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	switch c.Type {
	case domain.CouponPercentage:
		d := subtotal.Mul(c.Value).Div(hundred).Floor()
		if c.MaxDiscount != nil && d.GreaterThan(*c.MaxDiscount) {
			d = *c.MaxDiscount
		}
		return d
	case domain.CouponFixed:
		if c.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return c.Value
	case domain.CouponShipping:
		return ShippingFee(subtotal)
	}
	return decimal.Zero
}

// GrandTotal is subtotal plus shipping, before any coupon.
func GrandTotal(subtotal, fee decimal.Decimal) decimal.Decimal {
	return subtotal.Add(fee)
}

// FinalTotal applies the coupon discount to the grand total, clamped at zero.
// A shipping coupon already waives the fee, so the final total is the
// untouched subtotal.
func FinalTotal(subtotal, fee, discount decimal.Decimal, c *domain.Coupon) decimal.Decimal {
	if c != nil && c.Type == domain.CouponShipping {
		return subtotal
	}
	total := subtotal.Add(fee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Summary is the full pricing breakdown for one set of items.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Discount    decimal.Decimal `json:"discount"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	FinalTotal  decimal.Decimal `json:"final_total"`
}

// Summarize prices an item set under an optional coupon. The same tiering is
// used whether items are the full cart or the selected subset.
func Summarize(items []domain.CartItem, c *domain.Coupon) Summary {
	subtotal := Subtotal(items)
	fee := ShippingFee(subtotal)
	discount := CouponDiscount(c, subtotal)
	return Summary{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Discount:    discount,
		GrandTotal:  GrandTotal(subtotal, fee),
		FinalTotal:  FinalTotal(subtotal, fee, discount, c),
	}
}
