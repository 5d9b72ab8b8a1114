package xhttp

import (
	"net"
	"net/http"
	"strings"
)

// GetRequestIP returns the originating client IP: the first hop of
// X-Forwarded-For when present, otherwise the connection's remote address.
func GetRequestIP(r *http.Request) string {
	if xff := r.Header.Get(XForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return stripPort(strings.TrimSpace(first))
	}
	return stripPort(r.RemoteAddr)
}

func stripPort(addr string) string {
	if ip, _, err := net.SplitHostPort(addr); err == nil {
		return ip
	}
	return addr
}
