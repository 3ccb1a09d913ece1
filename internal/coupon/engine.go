package coupon

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates how a coupon value is interpreted.
type Kind string

const (
	// KindPercentage applies the value against the discountable amount.
	KindPercentage Kind = "percentage"
	// KindFixed subtracts the value directly, never beyond the base.
	KindFixed Kind = "fixed"
)

// Coupon is the validated result returned by the external coupon service.
// MinPurchase is enforced by that service, not here.
type Coupon struct {
	Code        string           `json:"code"`
	Kind        Kind             `json:"kind"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	MinPurchase *decimal.Decimal `json:"minPurchase,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Compute determines the order-level coupon discount against the
// discountable amount (product price minus product-level discounts). A nil
// coupon or a non-positive base yields zero. The result never exceeds the
// discountable amount.
func Compute(productPrice, productDiscount decimal.Decimal, c *Coupon) decimal.Decimal {
	if c == nil || c.Value.Sign() <= 0 {
		return decimal.Zero
	}
	discountable := productPrice.Sub(productDiscount)
	if discountable.Sign() <= 0 {
		return decimal.Zero
	}

	var amount decimal.Decimal
	if strings.EqualFold(string(c.Kind), string(KindPercentage)) {
		amount = discountable.Mul(c.Value).Div(hundred)
		if c.MaxDiscount != nil && c.MaxDiscount.Sign() > 0 && amount.GreaterThan(*c.MaxDiscount) {
			amount = *c.MaxDiscount
		}
	} else {
		amount = c.Value
	}
	if amount.GreaterThan(discountable) {
		amount = discountable
	}
	return amount
}
