package coupon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kasir-pos/internal/coupon"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

func newClient(baseURL string) *coupon.Client {
	return &coupon.Client{
		BaseURL:  baseURL,
		HTTP:     resilience.HTTPClient{Client: &http.Client{Timeout: time.Second}},
		Validate: validator.New(),
	}
}

func TestResolveReturnsTypedCoupon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coupons/SAVE10", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"SAVE10","kind":"percentage","value":10,"maxDiscount":5}`))
	}))
	defer srv.Close()

	c, err := newClient(srv.URL).Resolve(context.Background(), "SAVE10")
	require.NoError(t, err)
	require.Equal(t, "SAVE10", c.Code)
	require.Equal(t, coupon.KindPercentage, c.Kind)
	require.True(t, c.Value.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, c.MaxDiscount)
	require.True(t, c.MaxDiscount.Equal(decimal.NewFromInt(5)))
}

func TestResolveNotFoundKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"coupon expired"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Resolve(context.Background(), "OLD")
	require.ErrorIs(t, err, coupon.ErrNotFound)
	require.Contains(t, err.Error(), "coupon expired")
}

func TestResolveRejectsInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"","kind":"mystery","value":10}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Resolve(context.Background(), "X")
	require.Error(t, err)
	require.NotErrorIs(t, err, coupon.ErrNotFound)
}

func TestResolveEmptyCode(t *testing.T) {
	_, err := newClient("http://unused").Resolve(context.Background(), "  ")
	require.ErrorIs(t, err, coupon.ErrNotFound)
}
