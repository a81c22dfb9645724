// Package httputil holds small request and response helpers shared by the
// HTTP handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address for logging. Proxy headers
// (X-Forwarded-For first hop, then X-Real-IP) are honoured only when
// trustProxy is set, and only when they hold a parseable IP.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
