package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxKind distinguishes how a tax rule interacts with the listed price.
type TaxKind string

const (
	// TaxInclusive marks tax already embedded in the listed price. It is
	// extracted from the discounted price, never added on top.
	TaxInclusive TaxKind = "inclusive"
	// TaxExclusive marks tax charged on top of the tax-exclusive base.
	TaxExclusive TaxKind = "exclusive"
)

// ValueKind distinguishes percentage values from fixed per-unit amounts.
type ValueKind string

const (
	// Percentage is interpreted against the relevant base amount.
	Percentage ValueKind = "percentage"
	// Fixed is interpreted as an amount per unit.
	Fixed ValueKind = "fixed"
)

// IsFixed reports whether the kind resolves to a fixed per-unit amount.
// Anything unrecognised falls back to percentage.
func (k ValueKind) IsFixed() bool {
	return strings.EqualFold(string(k), string(Fixed))
}

// TaxRule is a single tax applicable to a line item. Rules are snapshotted
// onto line items when they enter the cart and never refreshed afterwards.
type TaxRule struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      TaxKind         `json:"kind"`
	ValueKind ValueKind       `json:"valueKind"`
	Value     decimal.Decimal `json:"value"`
}

// Inclusive reports whether the rule extracts tax from the listed price.
// A rule without an explicit kind defaults to exclusive.
func (r TaxRule) Inclusive() bool {
	return strings.EqualFold(string(r.Kind), string(TaxInclusive))
}

// DiscountSpec describes a catalog-level discount attached to a product.
type DiscountSpec struct {
	Value decimal.Decimal `json:"value"`
	Kind  ValueKind       `json:"kind"`
}

// TaxBreakdownEntry records the contribution of one tax rule. Entries are
// never merged across rules, even when two rules share the same kind.
type TaxBreakdownEntry struct {
	RuleID    string          `json:"ruleId"`
	RuleName  string          `json:"ruleName"`
	Kind      TaxKind         `json:"kind"`
	ValueKind ValueKind       `json:"valueKind"`
	Value     decimal.Decimal `json:"value"`
	Amount    decimal.Decimal `json:"amount"`
}

// LineItem is one cart line with its derived pricing figures. UnitPrice,
// Discount and TaxRules are snapshots captured when the item was added;
// the derived fields are recomputed in full on every quantity or discount
// change, never patched incrementally.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Discount  DiscountSpec    `json:"discount"`
	TaxRules  []TaxRule       `json:"taxRules,omitempty"`

	DiscountAmount decimal.Decimal     `json:"discountAmount"`
	TaxAmount      decimal.Decimal     `json:"taxAmount"`
	TaxableAmount  decimal.Decimal     `json:"taxableAmount"`
	TaxBreakdown   []TaxBreakdownEntry `json:"taxBreakdown,omitempty"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Total          decimal.Decimal     `json:"total"`
}

// Recompute re-derives every figure on the item from its snapshot, resolving
// the catalog discount for the current quantity first.
func (li *LineItem) Recompute() {
	li.SetDiscountAmount(ResolveDiscount(li.UnitPrice, li.Quantity, li.Discount))
}

// SetDiscountAmount records the effective discount and re-derives tax and
// totals against it. The recorded amount is capped at the line subtotal so
// the taxable-value reporting never goes negative.
func (li *LineItem) SetDiscountAmount(amount decimal.Decimal) {
	comp := ComputeLineItem(li.UnitPrice, li.Quantity, amount, li.TaxRules)
	if amount.GreaterThan(comp.Subtotal) {
		amount = comp.Subtotal
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	li.DiscountAmount = amount
	li.TaxAmount = comp.TaxAmount
	li.TaxableAmount = comp.TaxableAmount
	li.TaxBreakdown = comp.Breakdown
	li.Subtotal = comp.Subtotal
	li.Total = comp.Total
}

// ProductPrice sums unitPrice x quantity across the provided items.
func ProductPrice(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// ProductDiscount sums the recorded per-item discount amounts.
func ProductDiscount(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.DiscountAmount)
	}
	return total
}
