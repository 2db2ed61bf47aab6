package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRecords(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/v1/timetable/grid", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/timetable/grid", 200, 40*time.Millisecond)
	m.RecordConflict("TEACHER")
	m.RecordSlotDecodeFailure()
	m.RecordExport("csv")
	m.RecordCacheInvalidation()

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 30.0, snapshot.AverageRequestDurationMs, 0.5)
	assert.Equal(t, uint64(1), snapshot.TimetableConflicts)
	assert.Equal(t, uint64(1), snapshot.SlotDecodeFailures)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/api/v1/timetable/grid", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheInvalidations))
}

func TestMetricsServiceHandlerExposesCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordConflict("CLASS")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `timetable_conflicts_total{dimension="CLASS"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordConflict("CLASS")
	m.RecordSlotDecodeFailure()
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
