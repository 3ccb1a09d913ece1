package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/kasir-pos/internal/catalog"
	"github.com/noah-isme/kasir-pos/internal/common"
	"github.com/noah-isme/kasir-pos/internal/coupon"
	"github.com/noah-isme/kasir-pos/internal/credit"
	"github.com/noah-isme/kasir-pos/internal/events"
	"github.com/noah-isme/kasir-pos/internal/obs"
	"github.com/noah-isme/kasir-pos/internal/resilience"
)

// ProductSource resolves catalog products for add-to-order.
type ProductSource interface {
	Product(ctx context.Context, productID string) (catalog.Product, error)
}

// CouponResolver validates coupon codes against the external service.
type CouponResolver interface {
	Resolve(ctx context.Context, code string) (*coupon.Coupon, error)
}

// CreditSource resolves gift card and loyalty credit amounts.
type CreditSource interface {
	GiftCard(ctx context.Context, code string) (decimal.Decimal, error)
	Loyalty(ctx context.Context, memberID string) (decimal.Decimal, error)
}

// Handler wires cart sessions to HTTP. External lookups (catalog, coupon,
// credit) resolve before any cart mutation; on failure the cart keeps its
// previous state.
type Handler struct {
	Registry *Registry
	Catalog  ProductSource
	Coupons  CouponResolver
	Credit   CreditSource
	Validate *validator.Validate
	Bus      *events.Bus
	Currency string
}

// Routes mounts the cart endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/carts", h.Create)
	r.Route("/carts/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{itemId}", h.UpdateItem)
		r.Delete("/items/{itemId}", h.RemoveItem)
		r.Post("/coupon", h.ApplyCoupon)
		r.Delete("/coupon", h.RemoveCoupon)
		r.Post("/loyalty", h.ApplyLoyalty)
		r.Post("/gift-card", h.ApplyGiftCard)
		r.Post("/shipping", h.SetShipping)
		r.Post("/payment-method", h.SetPaymentMethod)
	})
}

// Create opens a new checkout session with an empty cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart registry not configured", nil)
		return
	}
	sessionID, c := h.Registry.Open()
	obs.CountCartSession()
	common.JSONData(w, http.StatusCreated, map[string]any{
		"sessionId":   sessionID,
		"orderNumber": c.OrderNumber(),
	})
}

// Get returns the cart snapshot: adjusted items plus totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	h.writeSnapshot(w, c)
}

// AddItem looks the product up in the catalog and adds it to the order.
// The requested quantity defaults to one and is applied as a single step, so
// an add that would breach the stock ceiling leaves the cart untouched.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog source not configured", nil)
		return
	}
	var payload struct {
		ProductID string `json:"productId" validate:"required"`
		Quantity  int    `json:"quantity"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	if payload.Quantity <= 0 {
		payload.Quantity = 1
	}
	product, err := h.Catalog.Product(r.Context(), payload.ProductID)
	if err != nil {
		obs.CountItemAdded("lookup_failed")
		h.writeError(w, err)
		return
	}
	if err := c.AddQuantity(product, payload.Quantity); err != nil {
		obs.CountItemAdded("rejected")
		h.writeError(w, err)
		return
	}
	obs.CountItemAdded("ok")
	h.emit(r.Context(), events.TopicCartUpdated, c)
	h.writeSnapshot(w, c)
}

// UpdateItem sets the quantity for a line item; zero or less removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	if err := c.UpdateQuantity(chi.URLParam(r, "itemId"), payload.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.emit(r.Context(), events.TopicCartUpdated, c)
	h.writeSnapshot(w, c)
}

// RemoveItem deletes a line item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	if err := c.Remove(chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, err)
		return
	}
	h.emit(r.Context(), events.TopicCartUpdated, c)
	h.writeSnapshot(w, c)
}

// Clear resets the cart for the next sale.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	previous := c.OrderNumber()
	c.Clear()
	if h.Bus != nil {
		_, _ = h.Bus.Emit(r.Context(), events.TopicCartCleared, previous, nil)
	}
	h.writeSnapshot(w, c)
}

// ApplyCoupon validates the code externally and attaches the result. A code
// that fails to resolve leaves the previously applied coupon untouched.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	if h.Coupons == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon resolver not configured", nil)
		return
	}
	var payload struct {
		Code string `json:"code" validate:"required"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	cp, err := h.Coupons.Resolve(r.Context(), strings.TrimSpace(payload.Code))
	if err != nil {
		obs.CountCouponApplied("rejected")
		h.writeError(w, err)
		return
	}
	if err := c.ApplyCoupon(cp); err != nil {
		obs.CountCouponApplied("rejected")
		h.writeError(w, err)
		return
	}
	obs.CountCouponApplied("ok")
	if h.Bus != nil {
		_, _ = h.Bus.Emit(r.Context(), events.TopicCouponApplied, c.OrderNumber(), map[string]any{"code": cp.Code})
	}
	h.writeSnapshot(w, c)
}

// RemoveCoupon drops the applied coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	c.RemoveCoupon()
	h.emit(r.Context(), events.TopicCartUpdated, c)
	h.writeSnapshot(w, c)
}

// ApplyLoyalty redeems loyalty points for the member and applies the
// resulting discount amount.
func (h *Handler) ApplyLoyalty(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	if h.Credit == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "credit source not configured", nil)
		return
	}
	var payload struct {
		MemberID string `json:"memberId" validate:"required"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	amount, err := h.Credit.Loyalty(r.Context(), strings.TrimSpace(payload.MemberID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := c.ApplyLoyalty(amount); err != nil {
		h.writeError(w, err)
		return
	}
	h.emit(r.Context(), events.TopicCartUpdated, c)
	h.writeSnapshot(w, c)
}

// ApplyGiftCard validates the gift card and applies its credit.
func (h *Handler) ApplyGiftCard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	if h.Credit == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "credit source not configured", nil)
		return
	}
	var payload struct {
		Code string `json:"code" validate:"required"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	amount, err := h.Credit.GiftCard(r.Context(), strings.TrimSpace(payload.Code))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := c.ApplyGiftCard(amount); err != nil {
		h.writeError(w, err)
		return
	}
	h.emit(r.Context(), events.TopicCartUpdated, c)
	h.writeSnapshot(w, c)
}

// SetShipping sets the shipping charge for the order.
func (h *Handler) SetShipping(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	var payload struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	if err := c.SetShipping(payload.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	h.emit(r.Context(), events.TopicCartUpdated, c)
	h.writeSnapshot(w, c)
}

// SetPaymentMethod records the selected tender.
func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, ok := h.cart(w, r)
	if !ok {
		return
	}
	var payload struct {
		Method string `json:"method" validate:"required"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	c.SetPaymentMethod(strings.TrimSpace(payload.Method))
	h.writeSnapshot(w, c)
}

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) (*Cart, bool) {
	if h.Registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart registry not configured", nil)
		return nil, false
	}
	sessionID := chi.URLParam(r, "id")
	c, ok := h.Registry.Get(sessionID)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
		return nil, false
	}
	return c, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *Handler) emit(ctx context.Context, topic string, c *Cart) {
	if h.Bus == nil {
		return
	}
	_, _ = h.Bus.Emit(ctx, topic, c.OrderNumber(), nil)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, c *Cart) {
	snap := c.View()
	common.JSON(w, http.StatusOK, map[string]any{
		"data":     snap,
		"currency": h.Currency,
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
	case errors.Is(err, ErrStockExceeded):
		common.JSONError(w, http.StatusConflict, "STOCK_EXCEEDED", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, credit.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, resilience.ErrOpenCircuit):
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), nil)
	}
}
