package credit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/kasir-pos/internal/resilience"
)

// ErrNotFound indicates the gift card or loyalty account did not resolve.
var ErrNotFound = errors.New("credit not found")

// Client resolves gift-card codes and loyalty balances against the external
// credit service. Both calls return a plain non-negative amount; the cart
// applies it atomically only on success.
type Client struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

type amountPayload struct {
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message"`
}

// GiftCard validates a gift-card code and returns its remaining credit.
func (c *Client) GiftCard(ctx context.Context, code string) (decimal.Decimal, error) {
	return c.fetchAmount(ctx, "/gift-cards/"+url.PathEscape(strings.TrimSpace(code)))
}

// Loyalty returns the redeemable loyalty discount for a member.
func (c *Client) Loyalty(ctx context.Context, memberID string) (decimal.Decimal, error) {
	return c.fetchAmount(ctx, "/loyalty/"+url.PathEscape(strings.TrimSpace(memberID))+"/balance")
}

func (c *Client) fetchAmount(ctx context.Context, path string) (decimal.Decimal, error) {
	if c == nil || strings.TrimSpace(c.BaseURL) == "" {
		return decimal.Zero, errors.New("credit client not configured")
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		var body amountPayload
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Message != "" {
			return decimal.Zero, fmt.Errorf("%s: %w", body.Message, ErrNotFound)
		}
		return decimal.Zero, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("credit service: unexpected status %s", resp.Status)
	}

	var payload amountPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("credit service: decode response: %w", err)
	}
	if payload.Amount.IsNegative() {
		return decimal.Zero, nil
	}
	return payload.Amount, nil
}
