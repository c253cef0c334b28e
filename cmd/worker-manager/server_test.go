package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-magnet-workers/internal/common/logger"
)

type stubChecker struct {
	err error
}

func (s stubChecker) HealthCheck(context.Context) error {
	return s.err
}

func get(t *testing.T, srv *http.Server, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	body := map[string]string{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHTTPServer_Health(t *testing.T) {
	srv := newHTTPServer(":0", stubChecker{})

	rec, body := get(t, srv, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestHTTPServer_Ready(t *testing.T) {
	rec, body := get(t, newHTTPServer(":0", stubChecker{}), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])

	rec, body = get(t, newHTTPServer(":0", stubChecker{err: errors.New("gateway unavailable")}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "gateway unavailable", body["error"])
}

func TestHTTPServer_Metrics(t *testing.T) {
	rec, _ := get(t, newHTTPServer(":0", stubChecker{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLoadInputSchemas(t *testing.T) {
	log := logger.NewTestLogger(t)

	schemas := loadInputSchemas("../../configs/activity-registry.json", log)
	require.Contains(t, schemas, "generate-text")
	require.Contains(t, schemas, "generate-lead-magnet")
	assert.Equal(t, []interface{}{"prompt"}, schemas["generate-text"]["required"])

	assert.Empty(t, loadInputSchemas(filepath.Join(t.TempDir(), "missing.json"), log))
	assert.Empty(t, loadInputSchemas("", log))

	invalid := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"activities":[]}`), 0o600))
	assert.Empty(t, loadInputSchemas(invalid, log))
}
