package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeNoCoupon(t *testing.T) {
	got := Compute(dec("100"), decimal.Zero, nil)
	if !got.IsZero() {
		t.Fatalf("expected zero without a coupon, got %s", got)
	}
}

func TestComputePercentage(t *testing.T) {
	c := &Coupon{Code: "SAVE10", Kind: KindPercentage, Value: dec("10")}
	got := Compute(dec("250"), dec("50"), c)
	if !got.Equal(dec("20")) {
		t.Fatalf("expected 10%% of 200 = 20, got %s", got)
	}
}

func TestComputePercentageCappedAtMaxDiscount(t *testing.T) {
	cap := dec("5")
	c := &Coupon{Code: "SAVE10", Kind: KindPercentage, Value: dec("10"), MaxDiscount: &cap}
	got := Compute(dec("100"), decimal.Zero, c)
	if !got.Equal(dec("5")) {
		t.Fatalf("expected cap at 5, got %s", got)
	}
}

func TestComputeFixedNeverExceedsBase(t *testing.T) {
	c := &Coupon{Code: "FLAT50", Kind: KindFixed, Value: dec("50")}
	got := Compute(dec("40"), decimal.Zero, c)
	if !got.Equal(dec("40")) {
		t.Fatalf("expected fixed coupon clamped to 40, got %s", got)
	}
}

func TestComputeZeroDiscountableBase(t *testing.T) {
	c := &Coupon{Code: "FLAT5", Kind: KindFixed, Value: dec("5")}
	got := Compute(dec("30"), dec("30"), c)
	if !got.IsZero() {
		t.Fatalf("expected zero on exhausted base, got %s", got)
	}
}

func TestComputeNonPositiveValue(t *testing.T) {
	c := &Coupon{Code: "BROKEN", Kind: KindPercentage, Value: dec("-10")}
	got := Compute(dec("100"), decimal.Zero, c)
	if !got.IsZero() {
		t.Fatalf("expected zero for non-positive value, got %s", got)
	}
}
