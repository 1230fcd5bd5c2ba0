package middlewares

import (
	"net"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellocert/internal/certificate"
)

// clientIP extrae la IP del cliente. X-Forwarded-For solo se respeta si
// trustProxy (detrás de un proxy propio); si no, cualquiera podría elegir
// la clave de otro solicitante.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
			parts := strings.Split(xf, ",")
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithRequester calcula la RequesterKey (sha256 de la IP) y la deja en el
// contexto para handlers, rate limit y logs.
func WithRequester(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := certificate.RequesterKey(clientIP(r, trustProxy))
			next.ServeHTTP(w, r.WithContext(setRequesterKey(r.Context(), key)))
		})
	}
}
