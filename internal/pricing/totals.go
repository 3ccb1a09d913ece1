package pricing

import "github.com/shopspring/decimal"

// Adjustments are the order-level amounts applied on top of line items.
// Every value is a plain non-negative amount; the callers resolve coupon
// codes, loyalty balances and gift cards before anything reaches here.
type Adjustments struct {
	Coupon   decimal.Decimal
	Loyalty  decimal.Decimal
	GiftCard decimal.Decimal
	Shipping decimal.Decimal
}

// OrderTotals is the aggregated view over a cart. It has no lifecycle of its
// own: it is recomputed from scratch on every read and never stored.
type OrderTotals struct {
	ProductPrice     decimal.Decimal `json:"productPrice"`
	ProductDiscount  decimal.Decimal `json:"productDiscount"`
	CouponDiscount   decimal.Decimal `json:"couponDiscount"`
	LoyaltyDiscount  decimal.Decimal `json:"loyaltyDiscount"`
	GiftCardDiscount decimal.Decimal `json:"giftCardDiscount"`
	SubTotal         decimal.Decimal `json:"subTotal"`
	Tax              decimal.Decimal `json:"tax"`
	HasInclusiveTax  bool            `json:"hasInclusiveTax"`
	HasExclusiveTax  bool            `json:"hasExclusiveTax"`
	Shipping         decimal.Decimal `json:"shipping"`
	GrandTotal       decimal.Decimal `json:"grandTotal"`
	RoundOff         decimal.Decimal `json:"roundOff"`
}

// Aggregate reduces the cart into order totals. rawItems are the items
// before coupon allocation, adjustedItems the ones after; product discount is
// read from the raw items so it reports catalog discounts only, while tax and
// payable amounts come from the adjusted items.
//
// The grand total is rounded to a whole currency unit (cash-drawer rounding)
// and the signed round-off delta is reported alongside it.
func Aggregate(rawItems, adjustedItems []LineItem, adj Adjustments) OrderTotals {
	productPrice := ProductPrice(rawItems)
	productDiscount := ProductDiscount(rawItems)

	subTotal := productPrice.Sub(productDiscount).Sub(adj.Coupon)
	if subTotal.IsNegative() {
		subTotal = decimal.Zero
	}

	tax := decimal.Zero
	payable := decimal.Zero
	hasInclusive := false
	hasExclusive := false
	for _, item := range adjustedItems {
		tax = tax.Add(item.TaxAmount)
		payable = payable.Add(item.Total)
		for _, entry := range item.TaxBreakdown {
			switch entry.Kind {
			case TaxInclusive:
				hasInclusive = true
			case TaxExclusive:
				hasExclusive = true
			}
		}
	}

	rawTotal := payable.Add(adj.Shipping).Sub(adj.Loyalty).Sub(adj.GiftCard)
	if rawTotal.IsNegative() {
		rawTotal = decimal.Zero
	}
	grandTotal := rawTotal.Round(0)
	roundOff := grandTotal.Sub(rawTotal).Round(2)

	return OrderTotals{
		ProductPrice:     productPrice,
		ProductDiscount:  productDiscount,
		CouponDiscount:   adj.Coupon,
		LoyaltyDiscount:  adj.Loyalty,
		GiftCardDiscount: adj.GiftCard,
		SubTotal:         subTotal,
		Tax:              tax,
		HasInclusiveTax:  hasInclusive,
		HasExclusiveTax:  hasExclusive,
		Shipping:         adj.Shipping,
		GrandTotal:       grandTotal,
		RoundOff:         roundOff,
	}
}
