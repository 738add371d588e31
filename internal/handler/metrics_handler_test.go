package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/service"
)

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordExamResultWrite(service.LedgerOpCreate)
	h := NewMetricsHandler(metrics, nil)
	c, rec := newContext(http.MethodGet, "/metrics", nil)

	h.Prometheus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `records_exam_results_written_total{op="create"} 1`)
}

func TestMetricsHandlerPrometheusDisabled(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, _ := newContext(http.MethodGet, "/metrics", nil)

	h.Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
	})
	c, rec := newContext(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
}

func TestMetricsHandlerReadyReportsFailure(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	c, rec := newContext(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), `"status":"unavailable"`)
}
