package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	validator "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kasir-pos/internal/catalog"
	"github.com/noah-isme/kasir-pos/internal/pricing"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

const productBody = `{
	"productId": "p-1",
	"name": "Espresso Beans 1kg",
	"unitPrice": 120.5,
	"discountValue": 10,
	"discountKind": "percentage",
	"taxRules": [
		{"id": "vat", "name": "VAT", "kind": "inclusive", "valueKind": "percentage", "value": 11},
		{"id": "levy", "name": "Levy", "kind": "exclusive", "valueKind": "fixed", "value": 2}
	],
	"stockQuantity": 8
}`

func newClient(baseURL string, cache *catalog.Cache) *catalog.Client {
	return &catalog.Client{
		BaseURL:  baseURL,
		HTTP:     resilience.HTTPClient{Client: &http.Client{Timeout: time.Second}},
		Cache:    cache,
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	}
}

func TestProductNormalizesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/p-1", r.URL.Path)
		_, _ = w.Write([]byte(productBody))
	}))
	defer srv.Close()

	p, err := newClient(srv.URL, nil).Product(context.Background(), "p-1")
	require.NoError(t, err)
	require.Equal(t, "p-1", p.ID)
	require.True(t, p.UnitPrice.Equal(decimal.RequireFromString("120.5")))
	require.Equal(t, pricing.Percentage, p.Discount.Kind)
	require.Len(t, p.TaxRules, 2)
	require.True(t, p.TaxRules[0].Inclusive())
	require.True(t, p.TaxRules[1].ValueKind.IsFixed())
	require.Equal(t, 8, p.Stock)
}

func TestProductNormalizesMalformedNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"productId":"p-2","name":"X","unitPrice":-5,"discountValue":-1,"stockQuantity":-3}`))
	}))
	defer srv.Close()

	p, err := newClient(srv.URL, nil).Product(context.Background(), "p-2")
	require.NoError(t, err)
	require.True(t, p.UnitPrice.IsZero())
	require.True(t, p.Discount.Value.IsZero())
	require.Zero(t, p.Stock)
}

func TestProductNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newClient(srv.URL, nil).Product(context.Background(), "nope")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestProductServedFromCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(productBody))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := catalog.NewCache(rdb, time.Minute)

	client := newClient(srv.URL, cache)
	first, err := client.Product(context.Background(), "p-1")
	require.NoError(t, err)
	second, err := client.Product(context.Background(), "p-1")
	require.NoError(t, err)

	require.Equal(t, int64(1), hits.Load(), "second lookup must hit the cache")
	require.Equal(t, first.ID, second.ID)
	require.True(t, first.UnitPrice.Equal(second.UnitPrice))
}
