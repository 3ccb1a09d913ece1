package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/kasir-pos/internal/cart"
	"github.com/noah-isme/kasir-pos/internal/common"
	"github.com/noah-isme/kasir-pos/internal/obs"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

// Handler exposes sale submission over HTTP.
type Handler struct {
	Svc      *Service
	Registry *cart.Registry
}

// Routes mounts the checkout endpoint.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/carts/{id}/checkout", h.Checkout)
}

// Checkout submits the session's current cart as a sale. The cart is cleared
// for the next customer only after the order service accepts it.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	c, ok := h.Registry.Get(chi.URLParam(r, "id"))
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
		return
	}
	var payload struct {
		AmountPaid decimal.Decimal `json:"amountPaid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	snap := c.View()
	sale, err := h.Svc.Submit(r.Context(), snap.OrderNumber, snap.Items, snap.Totals, snap.PaymentMethod, payload.AmountPaid)
	if err != nil {
		obs.CountSaleSubmitted("error")
		h.writeError(w, err)
		return
	}
	obs.CountSaleSubmitted("ok")
	c.Clear()
	common.JSONData(w, http.StatusCreated, map[string]any{
		"sale":            sale,
		"nextOrderNumber": c.OrderNumber(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrEmptySale), errors.Is(err, ErrInsufficientPayment):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, resilience.ErrOpenCircuit):
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), nil)
	}
}
