package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type checkerFunc func(context.Context) error

func (f checkerFunc) Ready(ctx context.Context) error { return f(ctx) }

func TestReadyz(t *testing.T) {
	ok := NewController(checkerFunc(func(context.Context) error { return nil }), "1.2.3")
	rec := httptest.NewRecorder()
	ok.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","version":"1.2.3"}`, rec.Body.String())

	down := NewController(checkerFunc(func(context.Context) error { return errors.New("redis: connection refused") }), "1.2.3")
	rec = httptest.NewRecorder()
	down.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unavailable"`)
}

func TestHealthzIgnoresDependencies(t *testing.T) {
	c := NewController(checkerFunc(func(context.Context) error { return errors.New("down") }), "")
	rec := httptest.NewRecorder()
	c.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
