package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/kasir-pos/internal/resilience"
)

// ErrNotFound indicates the coupon code did not resolve at the validator.
var ErrNotFound = errors.New("coupon not found")

// Client resolves coupon codes against the external coupon validator. The
// engine never sees a code: only validated Coupon values reach the cart.
type Client struct {
	BaseURL  string
	HTTP     resilience.HTTPClient
	Validate *validator.Validate
}

type couponPayload struct {
	Code        string           `json:"code" validate:"required"`
	Kind        string           `json:"kind" validate:"required,oneof=percentage fixed"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount"`
	MinPurchase *decimal.Decimal `json:"minPurchase"`
}

type validatorError struct {
	Message string `json:"message"`
}

// Resolve validates the code and returns the typed coupon. A missing code is
// reported as ErrNotFound carrying the validator's message; transport
// failures bubble up so the caller leaves the current adjustment untouched.
func (c *Client) Resolve(ctx context.Context, code string) (*Coupon, error) {
	if c == nil || strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("coupon client not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("coupon code required: %w", ErrNotFound)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/coupons/" + url.PathEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("coupon validator: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		var body validatorError
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Message != "" {
			return nil, fmt.Errorf("%s: %w", body.Message, ErrNotFound)
		}
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coupon validator: unexpected status %s", resp.Status)
	}

	var payload couponPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("coupon validator: decode response: %w", err)
	}
	if c.Validate != nil {
		if err := c.Validate.Struct(payload); err != nil {
			return nil, fmt.Errorf("coupon validator: invalid payload: %w", err)
		}
	}

	kind := KindFixed
	if strings.EqualFold(payload.Kind, string(KindPercentage)) {
		kind = KindPercentage
	}
	coupon := &Coupon{
		Code:        payload.Code,
		Kind:        kind,
		Value:       payload.Value,
		MinPurchase: payload.MinPurchase,
	}
	// A discount cap only makes sense for percentage coupons.
	if kind == KindPercentage {
		coupon.MaxDiscount = payload.MaxDiscount
	}
	return coupon, nil
}
