package profile_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/common"
	"github.com/noah-isme/storefront/internal/profile"
	"github.com/noah-isme/storefront/internal/store"
)

const userID = "9a1b2c3d-4e5f-4a6b-8c7d-0e1f2a3b4c01"

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]store.User
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpsertUser(_ context.Context, id, phone string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		u = store.User{ID: id, CreatedAt: time.Now()}
	}
	if phone != "" {
		u.PhoneNumber = phone
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeUsers) UpdateUserName(_ context.Context, id, name string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	u.Name = &name
	f.users[id] = u
	return u, nil
}

func newService(t *testing.T) *profile.Service {
	t.Helper()
	svc, err := profile.NewService(&fakeUsers{users: map[string]store.User{}})
	require.NoError(t, err)
	return svc
}

func TestProfileLifecycle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, userID)
	require.True(t, errors.Is(err, profile.ErrNotFound))

	p, err := svc.Ensure(ctx, userID, " 919999900000 ")
	require.NoError(t, err)
	require.Equal(t, "919999900000", p.PhoneNumber)
	require.Nil(t, p.Name)

	p, err = svc.UpdateName(ctx, userID, profile.UpdateNameRequest{Name: "  Asha  "})
	require.NoError(t, err)
	require.Equal(t, "Asha", *p.Name)

	p, err = svc.Ensure(ctx, userID, "919999900000")
	require.NoError(t, err)
	require.Equal(t, "Asha", *p.Name, "ensure keeps the name")
}

func TestUpdateNameValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Ensure(ctx, userID, "919999900000")
	require.NoError(t, err)

	for _, name := range []string{"   ", strings.Repeat("a", 81)} {
		_, err := svc.UpdateName(ctx, userID, profile.UpdateNameRequest{Name: name})
		var appErr *common.AppError
		require.True(t, errors.As(err, &appErr), "name %q", name)
		require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	}
	_, err = svc.UpdateName(ctx, userID, profile.UpdateNameRequest{Name: strings.Repeat("a", 80)})
	require.NoError(t, err)
}

func TestProfileHandlers(t *testing.T) {
	h := profile.NewHandler(newService(t))
	withUser := func(req *http.Request) *http.Request {
		return req.WithContext(common.WithUserID(req.Context(), userID))
	}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Update(rec, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(`{"name":"Ravi"}`))))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data profile.Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Ravi", *body.Data.Name)

	rec = httptest.NewRecorder()
	h.Update(rec, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(`{"name":""}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
