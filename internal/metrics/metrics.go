// Package metrics expone métricas Prometheus del servicio: HTTP y pipelines
// de emisión/verificación.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implementa certificate.Observer.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	issued   *prometheus.CounterVec
	verified *prometheus.CounterVec
	stages   *prometheus.HistogramVec
}

// New registra los collectors en reg (nil = registry nuevo).
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{gatherer: reg}
	var err error

	if m.httpRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}
	if m.httpInflight, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo",
	})); err != nil {
		return nil, err
	}
	if m.issued, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificates_issued_total",
		Help: "Emisiones por resultado (ok o tipo de falla)",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.verified, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certificate_verifications_total",
		Help: "Verificaciones por veredicto y motivo",
	}, []string{"valid", "reason"})); err != nil {
		return nil, err
	}
	if m.stages, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "certificate_stage_duration_seconds",
		Help:    "Duración de cada etapa de los pipelines",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"op", "stage"})); err != nil {
		return nil, err
	}
	_, _ = register(reg, collectors.NewGoCollector())
	_, _ = register(reg, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m, nil
}

// register ignora duplicados y retorna el collector ya registrado.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveStage(op, stage string, seconds float64) {
	m.stages.WithLabelValues(op, stage).Observe(seconds)
}

func (m *Metrics) ObserveIssue(result string) {
	m.issued.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveVerify(valid bool, reason string) {
	m.verified.WithLabelValues(strconv.FormatBool(valid), reason).Inc()
}

// Middleware instrumenta requests (contadores, latencia, inflight). La ruta
// es el patrón de chi, no el path crudo.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInflight.Inc()
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.Dec()
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			method := strings.ToUpper(r.Method)
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		}()
		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
