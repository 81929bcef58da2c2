package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for rate-limit keys and request logs:
// the first valid X-Forwarded-For hop, then X-Real-IP, then RemoteAddr
// without its port. Values that do not parse as IPs are skipped so a spoofed
// header cannot mint arbitrary limiter keys.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := parseIP(addr); ip != "" {
		return ip
	}
	return addr
}

func parseIP(v string) string {
	ip := net.ParseIP(strings.Trim(strings.TrimSpace(v), "[]"))
	if ip == nil {
		return ""
	}
	return ip.String()
}
