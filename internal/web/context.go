package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/tbe/internal/core"
)

// withClient adds the caller's IP and User-Agent to the request context so
// they are stored with the extraction.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), clientIP(r), r.UserAgent())
}

// clientIP returns the host part of RemoteAddr, which TrustedRealIP has
// already rewritten for requests from trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
