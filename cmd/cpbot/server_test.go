package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerHandleHealth(t *testing.T) {
	server := NewServer(nil, logrus.New())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestServerHandleMetrics(t *testing.T) {
	server := NewServer(nil, logrus.New())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Contains(t, payload, "counters")
	assert.Contains(t, payload, "uptime_ms")
}

func TestServerWebhookRoute(t *testing.T) {
	called := false
	handler := func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}
	server := NewServer(handler, logrus.New())

	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestServerWebhookRouteAbsentInPollingMode(t *testing.T) {
	server := NewServer(nil, logrus.New())

	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerShutdownWithoutStart(t *testing.T) {
	server := NewServer(nil, logrus.New())
	assert.NoError(t, server.Shutdown(context.Background()))
}
