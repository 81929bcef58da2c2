package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront/internal/common"
	"github.com/noah-isme/storefront/internal/lock"
)

// Handler exposes the authenticated cart endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	cart, err := h.service.View(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, cart)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}
	cart, err := h.service.Add(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, cart)
}

// AdjustItem handles PATCH /api/v1/cart/items/{itemId}.
func (h *Handler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req AdjustItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}
	cart, err := h.service.Adjust(r.Context(), userID, chi.URLParam(r, "itemId"), req.Delta)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), userID, chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return "", false
	}
	return userID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
		return
	case errors.Is(err, ErrOutOfStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", "product is out of stock", nil)
		return
	case errors.Is(err, lock.ErrBusy):
		common.JSONError(w, http.StatusConflict, "CART_BUSY", "cart item is being updated, retry shortly", nil)
		return
	}
	common.WriteError(w, err)
}
