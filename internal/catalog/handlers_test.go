package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/catalog"
)

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _, _ := newTestService(t, newFakeQueries())
	h := catalog.NewHandler(catalog.HandlerConfig{Service: svc, MaxAge: 15 * time.Second})
	r := chi.NewRouter()
	r.Get("/api/v1/categories", h.Categories)
	r.Get("/api/v1/categories/{category}", h.Category)
	r.Get("/api/v1/home", h.Home)
	r.Get("/api/v1/products/{id}", h.ProductDetail)
	return r
}

func TestCatalogHandlers(t *testing.T) {
	router := newRouter(t)

	t.Run("product detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+phoneID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "public, max-age=15", rec.Header().Get("Cache-Control"))
		var body struct {
			Data catalog.ProductView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "Alpha Phone", body.Data.Title)
		require.Equal(t, int64(79900), body.Data.Price)
		require.NotNil(t, body.Data.CompareAt)
		require.Equal(t, int64(199900), *body.Data.CompareAt)
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/nope", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Empty(t, rec.Header().Get("Cache-Control"))
		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("category page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories/Books", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data catalog.CategoryPage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, []string{"Fiction"}, body.Data.Subcategories)
	})

	t.Run("home and categories", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/home", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
	})
}

func TestHandlerWithoutService(t *testing.T) {
	h := catalog.NewHandler(catalog.HandlerConfig{})
	rec := httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest(http.MethodGet, "/api/v1/home", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
