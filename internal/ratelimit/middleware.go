package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/storefront/internal/common"
)

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter *Limiter
	// Key derives the bucket for a request. Nil disables limiting.
	Key     func(*http.Request) string
	OnError func(error)
}

// UserOrIP buckets authenticated callers by user id and anonymous ones by
// client address.
func UserOrIP(r *http.Request) string {
	if userID, ok := common.UserID(r.Context()); ok {
		return "user:" + userID
	}
	return "ip:" + common.ClientIP(r)
}

// Middleware implements the http.Handler middleware interface. A failing
// limiter lets the request through.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Key == nil || h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := h.Limiter.Allow(r.Context(), h.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
