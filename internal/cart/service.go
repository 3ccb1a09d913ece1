package cart

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/kasir-pos/internal/catalog"
	"github.com/noah-isme/kasir-pos/internal/coupon"
	"github.com/noah-isme/kasir-pos/internal/pricing"
)

// ErrNotFound indicates the requested cart item could not be located.
var ErrNotFound = errors.New("cart item not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrStockExceeded is returned when an add or quantity change would push a
// line item past the product's stock ceiling. The cart is left unchanged.
var ErrStockExceeded = errors.New("stock limit exceeded")

// orderSeq distinguishes order numbers generated within the same second.
var orderSeq atomic.Uint64

// line pairs a priced cart item with the stock ceiling captured from the
// catalog. The ceiling guards quantity changes; the item itself is a snapshot
// and never refreshed from the catalog.
type line struct {
	item  pricing.LineItem
	stock int
}

// Snapshot is the derived view over a cart: coupon-adjusted items plus
// aggregated totals. It is recomputed from live state on every read and is
// never cached or stored.
type Snapshot struct {
	OrderNumber   string              `json:"orderNumber"`
	Items         []pricing.LineItem  `json:"items"`
	Totals        pricing.OrderTotals `json:"totals"`
	CouponCode    string              `json:"couponCode,omitempty"`
	PaymentMethod string              `json:"paymentMethod,omitempty"`
}

// Cart holds the line items and order-level adjustments for one checkout
// session. One cart serves one terminal; the mutex guards against the HTTP
// layer, not concurrent operators.
type Cart struct {
	Now func() time.Time

	mu            sync.Mutex
	orderNumber   string
	lines         []line
	coupon        *coupon.Coupon
	loyalty       decimal.Decimal
	giftCard      decimal.Decimal
	shipping      decimal.Decimal
	paymentMethod string
}

// New constructs an empty cart with a freshly generated order number.
// A nil clock falls back to time.Now.
func New(now func() time.Time) *Cart {
	c := &Cart{Now: now}
	c.orderNumber = c.newOrderNumber()
	return c
}

func (c *Cart) now() time.Time {
	if c != nil && c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// newOrderNumber derives a human-scannable identifier from the wall clock.
// The trailing sequence keeps numbers distinct within the same second.
func (c *Cart) newOrderNumber() string {
	return fmt.Sprintf("POS-%s-%04d", c.now().Format("20060102-150405"), orderSeq.Add(1)%10000)
}

// OrderNumber returns the current order number.
func (c *Cart) OrderNumber() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderNumber
}

// AddToOrder adds one unit of the product. An existing line for the same
// product is incremented against its original price/discount/tax snapshot;
// only the stock ceiling is refreshed from the passed product. A new line
// snapshots the product as it is right now.
func (c *Cart) AddToOrder(product catalog.Product) error {
	return c.AddQuantity(product, 1)
}

// AddQuantity adds count units of the product in one step. The whole add is
// checked against the stock ceiling up front: if the resulting quantity would
// exceed it, nothing is added and the cart is left unchanged.
func (c *Cart) AddQuantity(product catalog.Product, count int) error {
	if c == nil {
		return errors.New("cart not configured")
	}
	if product.ID == "" {
		return fmt.Errorf("product id required: %w", ErrInvalidInput)
	}
	if count <= 0 {
		return fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].item.ProductID != product.ID {
			continue
		}
		newQty := c.lines[i].item.Quantity + count
		if product.Stock > 0 && newQty > product.Stock {
			return fmt.Errorf("%s: %w", product.Name, ErrStockExceeded)
		}
		c.lines[i].stock = product.Stock
		c.lines[i].item.Quantity = newQty
		c.lines[i].item.Recompute()
		return nil
	}

	if product.Stock > 0 && count > product.Stock {
		return fmt.Errorf("%s: %w", product.Name, ErrStockExceeded)
	}
	item := pricing.LineItem{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Quantity:  count,
		Discount:  product.Discount,
		TaxRules:  append([]pricing.TaxRule(nil), product.TaxRules...),
	}
	item.Recompute()
	c.lines = append(c.lines, line{item: item, stock: product.Stock})
	return nil
}

// UpdateQuantity sets the quantity for a line item. A quantity of zero or
// less removes the item. Exceeding the stock ceiling leaves the cart
// unchanged.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if c == nil {
		return errors.New("cart not configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.findLocked(itemID)
	if idx < 0 {
		return ErrNotFound
	}
	if quantity <= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
		return nil
	}
	if stock := c.lines[idx].stock; stock > 0 && quantity > stock {
		return fmt.Errorf("%s: %w", c.lines[idx].item.Name, ErrStockExceeded)
	}
	c.lines[idx].item.Quantity = quantity
	c.lines[idx].item.Recompute()
	return nil
}

// Remove deletes a line item.
func (c *Cart) Remove(itemID string) error {
	if c == nil {
		return errors.New("cart not configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.findLocked(itemID)
	if idx < 0 {
		return ErrNotFound
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return nil
}

// Clear empties the cart, drops every order-level adjustment and the payment
// method, and regenerates the order number for the next sale.
func (c *Cart) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.coupon = nil
	c.loyalty = decimal.Zero
	c.giftCard = decimal.Zero
	c.shipping = decimal.Zero
	c.paymentMethod = ""
	c.orderNumber = c.newOrderNumber()
}

// ApplyCoupon attaches a validated coupon. The discount itself is computed
// lazily on every read, never stored.
func (c *Cart) ApplyCoupon(cp *coupon.Coupon) error {
	if c == nil {
		return errors.New("cart not configured")
	}
	if cp == nil || cp.Code == "" {
		return fmt.Errorf("coupon required: %w", ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *cp
	c.coupon = &copied
	return nil
}

// RemoveCoupon drops the applied coupon.
func (c *Cart) RemoveCoupon() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = nil
}

// ApplyLoyalty sets the loyalty redemption amount.
func (c *Cart) ApplyLoyalty(amount decimal.Decimal) error {
	if c == nil {
		return errors.New("cart not configured")
	}
	if amount.IsNegative() {
		return fmt.Errorf("loyalty amount must not be negative: %w", ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loyalty = amount
	return nil
}

// ApplyGiftCard sets the gift card credit amount.
func (c *Cart) ApplyGiftCard(amount decimal.Decimal) error {
	if c == nil {
		return errors.New("cart not configured")
	}
	if amount.IsNegative() {
		return fmt.Errorf("gift card amount must not be negative: %w", ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.giftCard = amount
	return nil
}

// SetShipping sets the shipping charge.
func (c *Cart) SetShipping(amount decimal.Decimal) error {
	if c == nil {
		return errors.New("cart not configured")
	}
	if amount.IsNegative() {
		return fmt.Errorf("shipping amount must not be negative: %w", ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shipping = amount
	return nil
}

// SetPaymentMethod records the tender selected for this sale.
func (c *Cart) SetPaymentMethod(method string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paymentMethod = method
}

// View derives the full cart snapshot from live state: coupon discount,
// per-item allocation and aggregated totals are all recomputed here on every
// call. There is no derived cache that can drift.
func (c *Cart) View() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	raw := make([]pricing.LineItem, len(c.lines))
	for i, ln := range c.lines {
		raw[i] = ln.item
	}

	productPrice := pricing.ProductPrice(raw)
	productDiscount := pricing.ProductDiscount(raw)
	couponDiscount := coupon.Compute(productPrice, productDiscount, c.coupon)
	discountable := productPrice.Sub(productDiscount)
	adjusted := pricing.Allocate(raw, couponDiscount, discountable)

	totals := pricing.Aggregate(raw, adjusted, pricing.Adjustments{
		Coupon:   couponDiscount,
		Loyalty:  c.loyalty,
		GiftCard: c.giftCard,
		Shipping: c.shipping,
	})

	snap := Snapshot{
		OrderNumber:   c.orderNumber,
		Items:         adjusted,
		Totals:        totals,
		PaymentMethod: c.paymentMethod,
	}
	if c.coupon != nil {
		snap.CouponCode = c.coupon.Code
	}
	return snap
}

func (c *Cart) findLocked(itemID string) int {
	for i := range c.lines {
		if c.lines[i].item.ID == itemID {
			return i
		}
	}
	return -1
}
