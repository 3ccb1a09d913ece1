package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func allocItem(id string, unitPrice string, qty int, discount string) LineItem {
	item := LineItem{ID: id, ProductID: "p-" + id, UnitPrice: dec(unitPrice), Quantity: qty}
	item.SetDiscountAmount(dec(discount))
	return item
}

func TestAllocateProportionalShares(t *testing.T) {
	// Post-discount subtotals 100 and 50 over a coupon of 15 => shares 10 and 5.
	items := []LineItem{
		allocItem("a", "100", 1, "0"),
		allocItem("b", "50", 1, "0"),
	}
	out := Allocate(items, dec("15"), dec("150"))

	if !out[0].DiscountAmount.Equal(dec("10")) {
		t.Fatalf("expected item a share 10, got %s", out[0].DiscountAmount)
	}
	if !out[1].DiscountAmount.Equal(dec("5")) {
		t.Fatalf("expected item b share 5, got %s", out[1].DiscountAmount)
	}
	if !out[0].Total.Equal(dec("90")) || !out[1].Total.Equal(dec("45")) {
		t.Fatalf("expected totals 90/45, got %s/%s", out[0].Total, out[1].Total)
	}
}

func TestAllocateStacksOnItemDiscount(t *testing.T) {
	// Item already carries a 20 catalog discount; the coupon share is added
	// on top and the recorded amount reflects the full effective discount.
	items := []LineItem{allocItem("a", "100", 2, "20")}
	out := Allocate(items, dec("18"), dec("180"))
	if !out[0].DiscountAmount.Equal(dec("38")) {
		t.Fatalf("expected recorded discount 38, got %s", out[0].DiscountAmount)
	}
	if !out[0].Total.Equal(dec("162")) {
		t.Fatalf("expected total 162, got %s", out[0].Total)
	}
}

func TestAllocateRederivesTax(t *testing.T) {
	item := LineItem{
		ID:        "a",
		UnitPrice: dec("100"),
		Quantity:  1,
		TaxRules:  []TaxRule{{ID: "gst", Kind: TaxExclusive, ValueKind: Percentage, Value: dec("10")}},
	}
	item.Recompute()
	if !item.TaxAmount.Equal(dec("10")) {
		t.Fatalf("expected pre-allocation tax 10, got %s", item.TaxAmount)
	}

	out := Allocate([]LineItem{item}, dec("20"), dec("100"))
	if !out[0].TaxAmount.Equal(dec("8")) {
		t.Fatalf("expected tax re-derived to 8, got %s", out[0].TaxAmount)
	}
	if !out[0].Total.Equal(dec("88")) {
		t.Fatalf("expected total 88, got %s", out[0].Total)
	}
}

func TestAllocateShortCircuits(t *testing.T) {
	items := []LineItem{allocItem("a", "100", 1, "0")}

	out := Allocate(items, decimal.Zero, dec("100"))
	if !out[0].DiscountAmount.IsZero() {
		t.Fatalf("expected identity for zero coupon, got %s", out[0].DiscountAmount)
	}

	// Zero discountable base must not divide.
	out = Allocate(items, dec("10"), decimal.Zero)
	if !out[0].DiscountAmount.IsZero() {
		t.Fatalf("expected identity for zero base, got %s", out[0].DiscountAmount)
	}
}

func TestAllocateSharesSumToCoupon(t *testing.T) {
	items := []LineItem{
		allocItem("a", "33.33", 3, "0"),
		allocItem("b", "19.99", 2, "5"),
		allocItem("c", "7.25", 7, "0"),
	}
	totalDiscountable := decimal.Zero
	for _, it := range items {
		totalDiscountable = totalDiscountable.Add(it.Subtotal.Sub(it.DiscountAmount))
	}
	couponDiscount := dec("12.50")
	out := Allocate(items, couponDiscount, totalDiscountable)

	shares := decimal.Zero
	for i, it := range out {
		shares = shares.Add(it.DiscountAmount.Sub(items[i].DiscountAmount))
	}
	diff := shares.Sub(couponDiscount).Abs()
	if diff.GreaterThan(dec("0.0001")) {
		t.Fatalf("expected shares to sum to %s, got %s (diff %s)", couponDiscount, shares, diff)
	}
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	items := []LineItem{allocItem("a", "100", 1, "0")}
	_ = Allocate(items, dec("10"), dec("100"))
	if !items[0].DiscountAmount.IsZero() {
		t.Fatalf("input items must stay untouched, got discount %s", items[0].DiscountAmount)
	}
}
