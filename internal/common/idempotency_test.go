package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5/middleware"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/common"
)

func TestIdemRejectsReplayForSameUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
		req.Header.Set("Idempotency-Key", "abc")
		req = req.WithContext(common.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusCreated, send("user-1"))
	require.Equal(t, http.StatusConflict, send("user-1"))
	require.Equal(t, http.StatusCreated, send("user-2"))
	require.Equal(t, 2, calls)
}

func TestIdemPassesThroughWithoutHeader(t *testing.T) {
	handler := common.Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIdemReleasesKeyAfterServerError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	status := http.StatusInternalServerError
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/event-products", nil)
		req.Header.Set("Idempotency-Key", "retry-me")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusInternalServerError, send())
	status = http.StatusCreated
	require.Equal(t, http.StatusCreated, send())
	require.Equal(t, http.StatusConflict, send())
}

func TestIdemReportsInFlightDuplicate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	idem := common.Idem{R: client, TTL: time.Minute}
	var inner *httptest.ResponseRecorder
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dup := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
		dup.Header.Set("Idempotency-Key", "slow")
		inner = httptest.NewRecorder()
		idem.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("duplicate must not reach the handler")
		})).ServeHTTP(inner, dup)
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req.Header.Set("Idempotency-Key", "slow")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, http.StatusConflict, inner.Code)
	require.Contains(t, inner.Body.String(), "IDEMPOTENCY_IN_PROGRESS")
}

func TestIdemReleasesKeyAfterHandlerPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fail := true
	idem := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	handler := middleware.Recoverer(idem)
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
		req.Header.Set("Idempotency-Key", "retry-after-panic")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusInternalServerError, send())
	require.Empty(t, mr.Keys())

	fail = false
	require.Equal(t, http.StatusCreated, send())
}
