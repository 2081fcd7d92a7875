package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/cartstate"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// CartController is the cart surface exposed over the diagnostics server.
type CartController interface {
	Cart() domain.Cart
	Settled() bool
	ItemState(itemID int64) cartstate.ItemState
	Refresh(ctx context.Context) error
	ChangeQuantity(ctx context.Context, itemID int64, delta int) error
	RemoveItem(ctx context.Context, itemID int64) error
	AddItem(ctx context.Context, input cartstate.AddItemInput) error
	ApplyCoupon(ctx context.Context, code string) error
}

// CartHandler drives the cart controller over HTTP.
type CartHandler struct {
	cart   CartController
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(cart CartController, logger *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

// ChangeQuantityRequest is the body of PATCH /cart/items/{itemId}.
type ChangeQuantityRequest struct {
	Delta int `json:"delta" validate:"min=-100,max=100"`
}

// ApplyCouponRequest is the body of POST /cart/coupon.
type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type cartView struct {
	Cart    domain.Cart `json:"cart"`
	Settled bool        `json:"settled"`
}

type itemStateView struct {
	ItemID int64  `json:"item_id"`
	State  string `json:"state"`
}

// GetCart handles GET /cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w)
}

// Refresh handles POST /cart/refresh.
func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Refresh(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

// AddItem handles POST /cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req cartstate.AddItemInput
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.cart.AddItem(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

// ItemState handles GET /cart/items/{itemId}/state.
func (h *CartHandler) ItemState(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: itemStateView{ItemID: itemID, State: h.cart.ItemState(itemID).String()},
	})
}

// ChangeQuantity handles PATCH /cart/items/{itemId}.
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var req ChangeQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.cart.ChangeQuantity(r.Context(), itemID, req.Delta); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

// RemoveItem handles DELETE /cart/items/{itemId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	if err := h.cart.RemoveItem(r.Context(), itemID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

// ApplyCoupon handles POST /cart/coupon.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.cart.ApplyCoupon(r.Context(), req.Code); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeCart(w)
}

func (h *CartHandler) writeCart(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: cartView{Cart: h.cart.Cart(), Settled: h.cart.Settled()},
	})
}

// writeError maps a refused mutation to 409; everything else goes through
// the shared error envelope.
func (h *CartHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, cartstate.ErrMutationPending) {
		err = apperrors.Conflict(err.Error())
	}
	httputil.WriteError(w, r, err, h.logger)
}

func itemIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "itemId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "invalid item id: " + raw},
		})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}
