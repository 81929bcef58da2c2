package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func ready(t *testing.T, h health.Handler) (int, health.Report) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var report health.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	return rr.Code, report
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadySuccess(t *testing.T) {
	code, report := ready(t, health.Handler{Checker: stubChecker{}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", report.Status)
	require.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, report.Checks)
}

func TestReadyReportsEachFailure(t *testing.T) {
	code, report := ready(t, health.Handler{Checker: stubChecker{redisErr: errors.New("redis down")}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unavailable", report.Status)
	require.Equal(t, "ok", report.Checks["postgres"])
	require.Equal(t, "redis down", report.Checks["redis"])
}

func TestReadyWithoutChecker(t *testing.T) {
	code, report := ready(t, health.Handler{})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unconfigured", report.Status)
}

func TestReadinessAfterShutdown(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	handler := health.Handler{Checker: stubChecker{}}

	health.SetReady(true)
	code, _ := ready(t, handler)
	require.Equal(t, http.StatusOK, code)

	health.SetReady(false)
	code, report := ready(t, handler)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "draining", report.Status)
}
