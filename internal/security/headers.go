package security

import (
	"net/http"
	"strconv"
	"strings"
)

const defaultHSTSMaxAge = 365 * 24 * 60 * 60

// Headers configures security headers for API responses.
type Headers struct {
	EnableHSTS bool
	HSTSMaxAge int
	// PrivatePrefixes lists path prefixes whose responses are per-user and
	// must never be cached, whether or not the request carried credentials.
	PrivatePrefixes []string
}

// Middleware attaches the storefront's response hardening headers. Responses
// carrying a cart, profile or admin listing are marked no-store.
func (h Headers) Middleware(next http.Handler) http.Handler {
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if h.private(r) {
			headers.Set("Cache-Control", "no-store")
		}
		if h.EnableHSTS && isHTTPS(r) {
			headers.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) private(r *http.Request) bool {
	if r.Header.Get("Authorization") != "" {
		return true
	}
	for _, prefix := range h.PrivatePrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
