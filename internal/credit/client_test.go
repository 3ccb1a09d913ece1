package credit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kasir-pos/internal/credit"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

func newClient(baseURL string) *credit.Client {
	return &credit.Client{
		BaseURL: baseURL,
		HTTP:    resilience.HTTPClient{Client: &http.Client{Timeout: time.Second}},
	}
}

func TestGiftCardReturnsAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gift-cards/GC-123", r.URL.Path)
		_, _ = w.Write([]byte(`{"amount":25.50}`))
	}))
	defer srv.Close()

	amount, err := newClient(srv.URL).GiftCard(context.Background(), "GC-123")
	require.NoError(t, err)
	require.True(t, amount.Equal(decimal.RequireFromString("25.50")))
}

func TestLoyaltyBalancePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/loyalty/member-9/balance", r.URL.Path)
		_, _ = w.Write([]byte(`{"amount":12}`))
	}))
	defer srv.Close()

	amount, err := newClient(srv.URL).Loyalty(context.Background(), "member-9")
	require.NoError(t, err)
	require.True(t, amount.Equal(decimal.NewFromInt(12)))
}

func TestGiftCardNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"card already redeemed"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).GiftCard(context.Background(), "GC-DEAD")
	require.ErrorIs(t, err, credit.ErrNotFound)
	require.Contains(t, err.Error(), "card already redeemed")
}

func TestNegativeAmountClampedToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"amount":-3}`))
	}))
	defer srv.Close()

	amount, err := newClient(srv.URL).GiftCard(context.Background(), "GC-NEG")
	require.NoError(t, err)
	require.True(t, amount.IsZero())
}
