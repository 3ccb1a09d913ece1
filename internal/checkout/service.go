package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/kasir-pos/internal/events"
	"github.com/noah-isme/kasir-pos/internal/pricing"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

// ErrEmptySale indicates a submission was attempted with no line items.
var ErrEmptySale = errors.New("sale has no items")

// ErrInsufficientPayment indicates the tendered amount does not cover the
// grand total.
var ErrInsufficientPayment = errors.New("amount paid is insufficient")

// SaleLine is one submitted line: quantity and the gross line value with its
// tax figure, as the order service expects them.
type SaleLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	NetAmount decimal.Decimal `json:"netAmount"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
}

// BillingSummary is the order-level billing record accompanying a sale.
type BillingSummary struct {
	SubTotal           decimal.Decimal `json:"subTotal"`
	TaxableAmount      decimal.Decimal `json:"taxableAmount"`
	TaxTotal           decimal.Decimal `json:"taxTotal"`
	GrandTotal         decimal.Decimal `json:"grandTotal"`
	AmountPaid         decimal.Decimal `json:"amountPaid"`
	RoundingAdjustment decimal.Decimal `json:"roundingAdjustment"`
}

// SalePayload is the full sale-submission body.
type SalePayload struct {
	OrderNumber   string         `json:"orderNumber"`
	Lines         []SaleLine     `json:"lines"`
	Billing       BillingSummary `json:"billing"`
	PaymentMethod string         `json:"paymentMethod,omitempty"`
	Currency      string         `json:"currency,omitempty"`
}

// BuildSale assembles the submission payload from the coupon-adjusted items
// and aggregated totals. Each line carries unitPrice x quantity; the taxable
// amount is summed from the per-item tax-exclusive bases.
func BuildSale(orderNumber string, items []pricing.LineItem, totals pricing.OrderTotals, amountPaid decimal.Decimal) SalePayload {
	lines := make([]SaleLine, 0, len(items))
	taxable := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, SaleLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			NetAmount: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			TaxAmount: item.TaxAmount,
		})
		taxable = taxable.Add(item.TaxableAmount)
	}
	return SalePayload{
		OrderNumber: orderNumber,
		Lines:       lines,
		Billing: BillingSummary{
			SubTotal:           totals.SubTotal,
			TaxableAmount:      taxable,
			TaxTotal:           totals.Tax,
			GrandTotal:         totals.GrandTotal,
			AmountPaid:         amountPaid,
			RoundingAdjustment: totals.RoundOff,
		},
	}
}

// Submitter delivers a sale to the order service.
type Submitter interface {
	Submit(ctx context.Context, sale SalePayload) error
}

// HTTPSubmitter posts sales to the order service through the resilient
// HTTP wrapper.
type HTTPSubmitter struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// Submit posts the sale payload.
func (s *HTTPSubmitter) Submit(ctx context.Context, sale SalePayload) error {
	if s == nil || strings.TrimSpace(s.BaseURL) == "" {
		return errors.New("sale submitter not configured")
	}
	body, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("encode sale: %w", err)
	}
	endpoint := strings.TrimRight(s.BaseURL, "/") + "/sales"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("submit sale: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit sale: unexpected status %s", resp.Status)
	}
	return nil
}

// Service finalizes a sale: it builds the payload, submits it and emits the
// submitted event. The cart itself is untouched; callers clear it only after
// a successful submission.
type Service struct {
	Submitter Submitter
	Events    *events.Bus
	Currency  string
}

// Submit validates and delivers the sale.
func (s *Service) Submit(ctx context.Context, orderNumber string, items []pricing.LineItem, totals pricing.OrderTotals, paymentMethod string, amountPaid decimal.Decimal) (SalePayload, error) {
	if s == nil || s.Submitter == nil {
		return SalePayload{}, errors.New("checkout service not configured")
	}
	sale := BuildSale(orderNumber, items, totals, amountPaid)
	if len(sale.Lines) == 0 {
		return SalePayload{}, ErrEmptySale
	}
	if amountPaid.IsNegative() || amountPaid.LessThan(totals.GrandTotal) {
		return SalePayload{}, fmt.Errorf("paid %s of %s: %w", amountPaid, totals.GrandTotal, ErrInsufficientPayment)
	}
	sale.PaymentMethod = paymentMethod
	sale.Currency = s.Currency

	if err := s.Submitter.Submit(ctx, sale); err != nil {
		return SalePayload{}, err
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleSubmitted, orderNumber, map[string]any{
			"grandTotal": sale.Billing.GrandTotal,
			"lines":      len(sale.Lines),
		})
	}
	return sale, nil
}
