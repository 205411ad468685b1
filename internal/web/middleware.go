package web

import (
	"net/http"
	"strings"
)

// ProtocolMiddleware stops browsers from upgrading to HTTP/3, which breaks
// long-lived event streams behind some proxies, and keeps SSE responses on
// plain keep-alive connections.
func ProtocolMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", "clear")

		if strings.HasPrefix(r.URL.Path, "/events") {
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("Cache-Control", "no-cache, no-transform")
		}

		next.ServeHTTP(w, r)
	})
}
