package router

import (
	"net"
	"net/http"
	"strings"

	"github.com/shandysiswandi/mailblast/internal/pkg/config"
)

var defaultIPHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareIP replaces RemoteAddr with the client address. Proxy headers
// are honoured in the order of app.server.ip_headers; "none" trusts only
// the socket peer.
func middlewareIP(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := clientIP(r, ipHeaders(cfg)); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ipHeaders(cfg config.Config) []string {
	if cfg == nil {
		return defaultIPHeaders
	}

	headers := cfg.GetArray("app.server.ip_headers")
	switch {
	case len(headers) == 0:
		return defaultIPHeaders
	case len(headers) == 1 && strings.EqualFold(headers[0], "none"):
		return nil
	default:
		return headers
	}
}

func clientIP(r *http.Request, headers []string) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		// the left-most X-Forwarded-For entry is the originating client
		v, _, _ = strings.Cut(v, ",")
		if v = strings.TrimSpace(v); net.ParseIP(v) != nil {
			return v
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return ""
}
