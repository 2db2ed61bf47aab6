package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/service"
)

func TestMetricsHandlerReadiness(t *testing.T) {
	up := PingerFunc(func(ctx context.Context) error { return nil })
	down := PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	handler := NewMetricsHandler(nil, map[string]Pinger{"database": up}, nil)
	c, w := newTestContext(http.MethodGet, "/ready", "")
	handler.Readiness(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	handler = NewMetricsHandler(nil, map[string]Pinger{"database": up, "redis": down}, nil)
	c, w = newTestContext(http.MethodGet, "/ready", "")
	handler.Readiness(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}

func TestMetricsHandlerPrometheusAndSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordConflict("TEACHER")
	handler := NewMetricsHandler(metrics, nil, nil)

	c, w := newTestContext(http.MethodGet, "/metrics", "")
	handler.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "timetable_conflicts_total")

	c, w = newTestContext(http.MethodGet, "/metrics/summary", "")
	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"timetable_conflicts":1`)
}

func TestMetricsHandlerWithoutMetrics(t *testing.T) {
	handler := NewMetricsHandler(nil, nil, nil)

	c, _ := newTestContext(http.MethodGet, "/metrics", "")
	handler.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
}
