package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheck struct {
	err error
}

func (s stubCheck) Ping(ctx context.Context) error        { return s.err }
func (s stubCheck) HealthCheck(ctx context.Context) error { return s.err }

func serve(t *testing.T, mux *http.ServeMux, path string) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if path != "/metrics" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	code, body := serve(t, newHealthMux(stubCheck{}, stubCheck{}, stubCheck{}), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["time"])
}

func TestReady(t *testing.T) {
	code, body := serve(t, newHealthMux(stubCheck{}, stubCheck{}, stubCheck{}), "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

func TestReady_PostgresDown(t *testing.T) {
	code, body := serve(t, newHealthMux(stubCheck{err: errors.New("connection refused")}, stubCheck{}, stubCheck{}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "connection refused", body["postgres"])
}

func TestReady_ZeebeDown(t *testing.T) {
	code, body := serve(t, newHealthMux(stubCheck{}, stubCheck{}, stubCheck{err: errors.New("unavailable")}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["zeebe"])
}

func TestReady_RedisDown(t *testing.T) {
	code, body := serve(t, newHealthMux(stubCheck{}, stubCheck{err: errors.New("redis ping failed")}, stubCheck{}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "redis ping failed", body["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	code, _ := serve(t, newHealthMux(stubCheck{}, stubCheck{}, stubCheck{}), "/metrics")
	assert.Equal(t, http.StatusOK, code)
}
