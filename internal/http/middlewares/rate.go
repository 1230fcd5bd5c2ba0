package middlewares

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/hellocert/internal/http/errors"
	"github.com/dropDatabas3/hellocert/internal/observability/logger"
	"github.com/dropDatabas3/hellocert/internal/rate"
)

// WithRateLimit limita por RequesterKey (requiere WithRequester antes en la
// cadena). Con limiter nil es un no-op. Si el backend falla se deja pasar
// el request.
func WithRateLimit(limiter rate.Limiter) Middleware {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetRequesterKey(r.Context())
			if key == "" {
				key = clientIP(r, false)
			}

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limit backend error", logger.Op("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				errors.WriteError(w, errors.ErrRateLimitExceeded.WithRetryAfter(res.RetryAfter))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
