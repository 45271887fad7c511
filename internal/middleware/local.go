package middleware

import (
	"net"
	"net/http"

	"vehicledetect/internal/logger"
)

// LocalOnly rejects requests whose peer is not a loopback address.
// Forwarding headers are ignored; a reverse proxy on the same host counts as local.
func LocalOnly(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
				logger.Warning("Refused %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
