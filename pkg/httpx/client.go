package httpx

import (
	"net"
	"net/http"
	"strings"
)

// maxUserAgentLength bounds what we persist in attempt and session rows.
const maxUserAgentLength = 500

// ClientIP extracts the client IP address from the request. It honours
// X-Forwarded-For and X-Real-IP for proxied requests and falls back to
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserAgent returns the request user agent truncated to a storable length.
func UserAgent(r *http.Request) string {
	ua := r.UserAgent()
	if len(ua) > maxUserAgentLength {
		return ua[:maxUserAgentLength]
	}
	return ua
}
