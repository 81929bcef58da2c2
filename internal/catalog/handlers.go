package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service *Service
	maxAge  time.Duration
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	// MaxAge sets a public Cache-Control lifetime on successful reads unless
	// an earlier middleware already chose a directive.
	MaxAge time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, maxAge: cfg.MaxAge}
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(ctx context.Context, s *Service) ([]string, error) {
		return s.Categories(ctx)
	})
}

// Home handles GET /api/v1/home.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, func(ctx context.Context, s *Service) (HomePage, error) {
		return s.Home(ctx)
	})
}

// Category handles GET /api/v1/categories/{category}.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	serve(h, w, r, func(ctx context.Context, s *Service) (CategoryPage, error) {
		return s.CategoryPage(ctx, category)
	})
}

// ProductDetail handles GET /api/v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	serve(h, w, r, func(ctx context.Context, s *Service) (ProductView, error) {
		return s.ProductDetail(ctx, id)
	})
}

func serve[T any](h *Handler, w http.ResponseWriter, r *http.Request, load func(context.Context, *Service) (T, error)) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	v, err := load(r.Context(), h.service)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if secs := int(h.maxAge / time.Second); secs > 0 && w.Header().Get("Cache-Control") == "" {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(secs))
	}
	common.Data(w, http.StatusOK, v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	common.WriteError(w, err)
}
