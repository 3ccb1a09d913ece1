package pricing

import "github.com/shopspring/decimal"

// Allocate distributes an order-level coupon discount across line items in
// proportion to each item's post-discount subtotal and re-derives tax per
// item, since the taxable base just shrank. The returned slice is a fresh
// copy; the input items are never mutated.
//
// Shares are proportional only. Rounding residue across items is accepted,
// not re-balanced.
func Allocate(items []LineItem, couponDiscount, totalDiscountable decimal.Decimal) []LineItem {
	if couponDiscount.Sign() <= 0 || totalDiscountable.Sign() <= 0 {
		return items
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		itemSubtotal := item.UnitPrice.Mul(qty).Sub(item.DiscountAmount)
		// Multiply before dividing so exact ratios stay exact.
		share := couponDiscount.Mul(itemSubtotal).Div(totalDiscountable)
		item.SetDiscountAmount(item.DiscountAmount.Add(share))
		out[i] = item
	}
	return out
}
