// Package health contiene el controller para health checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellocert/internal/observability/logger"
)

// Checker reporta si las dependencias del servicio responden.
type Checker interface {
	Ready(ctx context.Context) error
}

type Response struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Controller struct {
	checker Checker
	version string
	timeout time.Duration
}

func NewController(checker Checker, version string) *Controller {
	return &Controller{checker: checker, version: version, timeout: 2 * time.Second}
}

// Healthz maneja GET /healthz (liveness, no toca dependencias)
func (c *Controller) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Status: "ok", Version: c.version})
}

// Readyz maneja GET /readyz
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	if err := c.checker.Ready(ctx); err != nil {
		logger.From(ctx).Warn("readiness check failed",
			logger.Layer("controller"), logger.Op("HealthController.Readyz"), logger.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, Response{Status: "unavailable", Version: c.version, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: "ready", Version: c.version})
}

func writeJSON(w http.ResponseWriter, status int, v Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
