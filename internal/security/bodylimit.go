package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/noah-isme/storefront/internal/common"
)

// DefaultMaxBody bounds JSON payloads accepted by the storefront API.
const DefaultMaxBody = 64 << 10

// BodyLimit enforces a maximum request payload size.
type BodyLimit struct {
	Max int64
}

// Middleware rejects requests exceeding the configured limit with HTTP 413.
// Accepted bodies are buffered in full and carry an exact ContentLength.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	max := b.Max
	if max <= 0 {
		max = DefaultMaxBody
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > max {
			tooLarge(w)
			return
		}
		buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, max))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				tooLarge(w)
				return
			}
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", nil)
}
