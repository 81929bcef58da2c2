package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const idemPending = "pending"

// Idem guards write endpoints with the Idempotency-Key header. Keys are
// scoped to the caller, method and path. A request that fails with a 5xx
// releases its key so the client may retry with the same key.
type Idem struct {
	R   redis.UniversalClient
	TTL time.Duration
}

func hashKey(scope, key string) string {
	sum := sha256.Sum256([]byte(scope + "|" + key))
	return "idem:" + hex.EncodeToString(sum[:])
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		scope, _ := UserID(ctx)
		key := hashKey(scope+" "+r.Method+" "+r.URL.Path, header)

		ok, err := i.R.SetNX(ctx, key, idemPending, i.ttl()).Result()
		if err != nil {
			JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "idempotency store unavailable", nil)
			return
		}
		if !ok {
			if state, _ := i.R.Get(ctx, key).Result(); state == idemPending {
				JSONError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "a request with this key is still running", nil)
				return
			}
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			// the request context may already be cancelled here
			bg := context.WithoutCancel(ctx)
			if p := recover(); p != nil {
				// the recoverer further out answers 500
				_ = i.R.Del(bg, key).Err()
				panic(p)
			}
			if rec.status >= http.StatusInternalServerError {
				_ = i.R.Del(bg, key).Err()
				return
			}
			_ = i.R.Set(bg, key, strconv.Itoa(rec.status), i.ttl()).Err()
		}()
		next.ServeHTTP(rec, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
