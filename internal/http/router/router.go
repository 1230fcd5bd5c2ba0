// Package router arma el árbol de rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	certctrl "github.com/dropDatabas3/hellocert/internal/http/controllers/certificate"
	"github.com/dropDatabas3/hellocert/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/hellocert/internal/http/errors"
	mw "github.com/dropDatabas3/hellocert/internal/http/middlewares"
	"github.com/dropDatabas3/hellocert/internal/metrics"
	"github.com/dropDatabas3/hellocert/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Certificates *certctrl.Controller
	Health       *health.Controller

	// Opcionales
	Metrics     *metrics.Metrics
	RateLimiter rate.Limiter // solo /creation

	TrustProxyHeaders bool
}

// New registra todas las rutas:
//
//	POST /creation      emite el certificado del solicitante
//	POST /verification  verifica una imagen subida (multipart "image")
//	GET  /fond          descarga el último certificado emitido
//	GET  /healthz, /readyz, /metrics
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithRequester(deps.TrustProxyHeaders),
		mw.WithLogging(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if c := deps.Certificates; c != nil {
		r.With(mw.WithRateLimit(deps.RateLimiter)).Post("/creation", c.Create)
		r.Post("/verification", c.Verify)
		r.Get("/fond", c.Fetch)
	}

	if h := deps.Health; h != nil {
		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)
	}

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
