package promo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/storefront/internal/common"
)

const defaultBannerPageSize = 20

// Handler exposes public promotion reads and the seller/admin console.
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

// Events handles GET /api/v1/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	events, err := h.service.ActiveEvents(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, events)
}

// Banners handles GET /api/v1/banners.
func (h *Handler) Banners(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	banners, err := h.service.ActiveBanners(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, banners)
}

// ListEventProducts handles GET /api/v1/admin/event-products.
func (h *Handler) ListEventProducts(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	shopID, ok := shopScope(w, r)
	if !ok {
		return
	}
	rows, err := h.service.ListByShop(r.Context(), shopID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// CreateEventProduct handles POST /api/v1/admin/event-products.
func (h *Handler) CreateEventProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	shopID, ok := shopScope(w, r)
	if !ok {
		return
	}
	var req CreateEventProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	created, err := h.service.Create(r.Context(), shopID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, created)
}

// UpdateEventProduct handles PATCH /api/v1/admin/event-products/{id}.
func (h *Handler) UpdateEventProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	shopID, ok := shopScope(w, r)
	if !ok {
		return
	}
	var req UpdateEventProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.service.UpdatePrice(r.Context(), shopID, chi.URLParam(r, "id"), req); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEventProduct handles DELETE /api/v1/admin/event-products/{id}.
func (h *Handler) DeleteEventProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	shopID, ok := shopScope(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), shopID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AllBanners handles GET /api/v1/admin/banners.
func (h *Handler) AllBanners(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, defaultBannerPageSize)
	result, err := h.service.AllBanners(r.Context(), page, perPage)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result.Items, "pagination": result.Pagination})
}

// CreateBanner handles POST /api/v1/admin/banners.
func (h *Handler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req BannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	banner, err := h.service.CreateBanner(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, banner)
}

// UpdateBanner handles PATCH /api/v1/admin/banners/{id}.
func (h *Handler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req BannerPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	banner, err := h.service.UpdateBanner(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, banner)
}

// SetBannerStatus handles PUT /api/v1/admin/banners/{id}/status.
func (h *Handler) SetBannerStatus(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req BannerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.service.SetBannerStatus(r.Context(), chi.URLParam(r, "id"), *req.IsActive); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBanner handles DELETE /api/v1/admin/banners/{id}.
func (h *Handler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.service.DeleteBanner(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return false
	}
	return true
}

// shopScope resolves the shop a console request acts on. A seller's shop id
// is their user id; admins name the shop with the shopId query parameter.
func shopScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return "", false
	}
	switch common.Role(r.Context()) {
	case common.RoleSeller:
		return userID, true
	case common.RoleAdmin:
		shopID := strings.TrimSpace(r.URL.Query().Get("shopId"))
		if _, err := uuid.Parse(shopID); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "shopId query parameter is required", nil)
			return "", false
		}
		return shopID, true
	}
	common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", nil)
	return "", false
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	case errors.Is(err, ErrDuplicate):
		common.JSONError(w, http.StatusConflict, "DUPLICATE", "product already enrolled in this event", nil)
		return
	}
	common.WriteError(w, err)
}
