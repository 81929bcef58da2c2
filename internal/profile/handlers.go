package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noah-isme/storefront/internal/auth"
	"github.com/noah-isme/storefront/internal/common"
)

// Handler exposes the caller's profile.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /api/v1/profile. A caller without a profile gets one
// created from the verified phone claim.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	profile, err := h.service.Get(r.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		profile, err = h.service.Ensure(r.Context(), userID, auth.Phone(r.Context()))
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, profile)
}

// Update handles PUT /api/v1/profile.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req UpdateNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if _, err := h.service.Ensure(r.Context(), userID, auth.Phone(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}
	profile, err := h.service.UpdateName(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, profile)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "profile service not configured", nil)
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
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "profile not found", nil)
		return
	}
	common.WriteError(w, err)
}
