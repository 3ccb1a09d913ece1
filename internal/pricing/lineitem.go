package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Computation carries every figure derived for a single line item.
type Computation struct {
	Subtotal        decimal.Decimal
	DiscountedPrice decimal.Decimal
	// TaxableAmount is the discounted price with embedded inclusive tax
	// stripped out. Exclusive tax is charged against this base.
	TaxableAmount decimal.Decimal
	NetAmount     decimal.Decimal
	InclusiveTax  decimal.Decimal
	ExclusiveTax  decimal.Decimal
	TaxAmount     decimal.Decimal
	// Total is the final payable amount: discounted price plus exclusive
	// tax. Inclusive tax is already inside the discounted price.
	Total           decimal.Decimal
	Breakdown       []TaxBreakdownEntry
	HasInclusiveTax bool
	HasExclusiveTax bool
}

// ComputeLineItem derives discount, tax and payable figures for one line.
// Discount is applied before any tax. Inclusive rules extract tax from the
// discounted price; exclusive rules add tax on top of the stripped base so
// embedded inclusive tax is never taxed again.
//
// The function is total: malformed inputs (negative prices, nil or
// non-positive rules) are zeroed or skipped, never rejected.
func ComputeLineItem(unitPrice decimal.Decimal, quantity int, discountAmount decimal.Decimal, rules []TaxRule) Computation {
	if quantity < 0 {
		quantity = 0
	}
	if unitPrice.IsNegative() {
		unitPrice = decimal.Zero
	}
	if discountAmount.IsNegative() {
		discountAmount = decimal.Zero
	}
	qty := decimal.NewFromInt(int64(quantity))

	subtotal := unitPrice.Mul(qty)
	discounted := subtotal.Sub(discountAmount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	comp := Computation{Subtotal: subtotal, DiscountedPrice: discounted}

	inclusiveTotal := decimal.Zero
	for _, rule := range rules {
		if !rule.Inclusive() || rule.Value.Sign() <= 0 {
			continue
		}
		var amount decimal.Decimal
		if rule.ValueKind.IsFixed() {
			amount = rule.Value.Mul(qty)
		} else {
			amount = discounted.Mul(rule.Value).Div(hundred.Add(rule.Value))
		}
		inclusiveTotal = inclusiveTotal.Add(amount)
		comp.Breakdown = append(comp.Breakdown, breakdownEntry(rule, amount))
		comp.HasInclusiveTax = true
	}

	taxable := discounted.Sub(inclusiveTotal)

	exclusiveTotal := decimal.Zero
	for _, rule := range rules {
		if rule.Inclusive() || rule.Value.Sign() <= 0 {
			continue
		}
		var amount decimal.Decimal
		if rule.ValueKind.IsFixed() {
			amount = rule.Value.Mul(qty)
		} else {
			amount = taxable.Mul(rule.Value).Div(hundred)
		}
		exclusiveTotal = exclusiveTotal.Add(amount)
		comp.Breakdown = append(comp.Breakdown, breakdownEntry(rule, amount))
		comp.HasExclusiveTax = true
	}

	comp.InclusiveTax = inclusiveTotal
	comp.ExclusiveTax = exclusiveTotal
	comp.TaxAmount = inclusiveTotal.Add(exclusiveTotal)
	comp.TaxableAmount = taxable
	comp.NetAmount = taxable
	comp.Total = discounted.Add(exclusiveTotal)
	return comp
}

// ResolveDiscount turns a catalog discount spec into a concrete amount for
// the line. Percentage applies against the line subtotal, fixed applies per
// unit. Non-positive spec values resolve to zero.
func ResolveDiscount(unitPrice decimal.Decimal, quantity int, spec DiscountSpec) decimal.Decimal {
	if spec.Value.Sign() <= 0 || quantity <= 0 {
		return decimal.Zero
	}
	qty := decimal.NewFromInt(int64(quantity))
	if spec.Kind.IsFixed() {
		return spec.Value.Mul(qty)
	}
	return unitPrice.Mul(qty).Mul(spec.Value).Div(hundred)
}

func breakdownEntry(rule TaxRule, amount decimal.Decimal) TaxBreakdownEntry {
	kind := TaxExclusive
	if rule.Inclusive() {
		kind = TaxInclusive
	}
	valueKind := Percentage
	if rule.ValueKind.IsFixed() {
		valueKind = Fixed
	}
	return TaxBreakdownEntry{
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Kind:      kind,
		ValueKind: valueKind,
		Value:     rule.Value,
		Amount:    amount,
	}
}
