package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/kasir-pos/internal/pricing"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

// ErrNotFound indicates the product does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

// Product is the normalized catalog lookup result. The cart snapshots its
// price, discount and tax rules at add-to-order time; later catalog changes
// never reach items already in the cart.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Discount  pricing.DiscountSpec
	TaxRules  []pricing.TaxRule
	Stock     int
}

// productPayload is the raw wire shape returned by the catalog service.
// Upstream data may be incomplete; normalization zeroes anything malformed
// instead of failing the lookup.
type productPayload struct {
	ProductID     string           `json:"productId" validate:"required"`
	Name          string           `json:"name"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	DiscountKind  string           `json:"discountKind"`
	TaxRules      []taxRulePayload `json:"taxRules"`
	StockQuantity int              `json:"stockQuantity"`
}

type taxRulePayload struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	ValueKind string          `json:"valueKind"`
	Value     decimal.Decimal `json:"value"`
}

// Client fetches and normalizes catalog products. Lookups go through the
// resilient HTTP wrapper and an optional Redis cache.
type Client struct {
	BaseURL  string
	HTTP     resilience.HTTPClient
	Cache    *Cache
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Product looks up one product by id.
func (c *Client) Product(ctx context.Context, productID string) (Product, error) {
	if c == nil || strings.TrimSpace(c.BaseURL) == "" {
		return Product{}, errors.New("catalog client not configured")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("product id required: %w", ErrNotFound)
	}

	if cached, ok := c.Cache.GetProduct(ctx, productID); ok {
		return cached.normalize(), nil
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/products/" + url.PathEscape(productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Product{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Product{}, fmt.Errorf("catalog lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return Product{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Product{}, fmt.Errorf("catalog lookup: unexpected status %s", resp.Status)
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Product{}, fmt.Errorf("catalog lookup: decode response: %w", err)
	}
	if c.Validate != nil {
		if err := c.Validate.Struct(payload); err != nil {
			return Product{}, fmt.Errorf("catalog lookup: invalid payload: %w", err)
		}
	}

	if err := c.Cache.SetProduct(ctx, productID, payload); err != nil {
		c.Logger.Warn().Err(err).Str("product_id", productID).Msg("cache product")
	}
	return payload.normalize(), nil
}

func (p productPayload) normalize() Product {
	unitPrice := p.UnitPrice
	if unitPrice.IsNegative() {
		unitPrice = decimal.Zero
	}
	discountValue := p.DiscountValue
	if discountValue.IsNegative() {
		discountValue = decimal.Zero
	}
	stock := p.StockQuantity
	if stock < 0 {
		stock = 0
	}

	rules := make([]pricing.TaxRule, 0, len(p.TaxRules))
	for _, r := range p.TaxRules {
		rules = append(rules, pricing.TaxRule{
			ID:        r.ID,
			Name:      r.Name,
			Kind:      pricing.TaxKind(strings.ToLower(strings.TrimSpace(r.Kind))),
			ValueKind: pricing.ValueKind(strings.ToLower(strings.TrimSpace(r.ValueKind))),
			Value:     r.Value,
		})
	}

	discountKind := pricing.Percentage
	if pricing.ValueKind(strings.ToLower(p.DiscountKind)).IsFixed() {
		discountKind = pricing.Fixed
	}

	return Product{
		ID:        p.ProductID,
		Name:      p.Name,
		UnitPrice: unitPrice,
		Discount:  pricing.DiscountSpec{Value: discountValue, Kind: discountKind},
		TaxRules:  rules,
		Stock:     stock,
	}
}
