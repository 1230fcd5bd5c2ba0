package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveIssue("ok")
	m.ObserveIssue("ok")
	m.ObserveIssue("timeout")
	m.ObserveVerify(false, "qr_unreadable")
	m.ObserveStage("issue", "sign", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.issued.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verified.WithLabelValues("false", "qr_unreadable")))
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	a.ObserveIssue("ok")

	b, err := New(reg)
	require.NoError(t, err)
	assert.Same(t, a.issued, b.issued)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.issued.WithLabelValues("ok")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/fond", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fond", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/fond",status="418"} 1`), body)
}
