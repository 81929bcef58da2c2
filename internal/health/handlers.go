package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

var draining atomic.Bool

// SetReady toggles readiness. The API flips it off when shutdown begins so
// load balancers stop routing new traffic while in-flight requests finish.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Checker probes the storefront's backing stores.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Report is the readiness payload.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /health/live and /health/ready.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready probes Postgres and Redis in parallel. Both are required: catalog
// reads need Postgres and cart writes need the Redis line lock.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		writeReport(w, http.StatusServiceUnavailable, Report{Status: "draining"})
		return
	}
	if h.Checker == nil {
		writeReport(w, http.StatusServiceUnavailable, Report{Status: "unconfigured"})
		return
	}

	ctx := r.Context()
	var (
		wg       sync.WaitGroup
		dbErr    error
		redisErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		dbErr = h.Checker.PingDB(ctx, h.dbTimeout())
	}()
	go func() {
		defer wg.Done()
		redisErr = h.Checker.PingRedis(ctx, h.redisTimeout())
	}()
	wg.Wait()

	report := Report{Status: "ok", Checks: map[string]string{"postgres": "ok", "redis": "ok"}}
	code := http.StatusOK
	if dbErr != nil {
		report.Checks["postgres"] = dbErr.Error()
		report.Status, code = "unavailable", http.StatusServiceUnavailable
	}
	if redisErr != nil {
		report.Checks["redis"] = redisErr.Error()
		report.Status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeReport(w, code, report)
}

func writeReport(w http.ResponseWriter, code int, report Report) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
