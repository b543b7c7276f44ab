package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/pagetrans/config"
	"github.com/minios-linux/pagetrans/metrics"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusEndpoints(t *testing.T) {
	s := New(config.ServerConfig{Port: 8000}, config.MetricsConfig{}, nil, nil)

	for path, want := range map[string]string{"/": "online", "/health": "healthy"} {
		rec := get(t, s.Handler(), path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, want, body.Status)
	}
}

func TestUnknownPath(t *testing.T) {
	s := New(config.ServerConfig{}, config.MetricsConfig{}, nil, nil)
	rec := get(t, s.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.CacheHit()

	s := New(config.ServerConfig{}, config.MetricsConfig{Enabled: true, Path: "/metrics"}, reg, nil)
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pagetrans_cache_hits_total 1"))
}

func TestMetricsDisabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(config.ServerConfig{}, config.MetricsConfig{Enabled: false, Path: "/metrics"}, reg, nil)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/metrics").Code)
}
