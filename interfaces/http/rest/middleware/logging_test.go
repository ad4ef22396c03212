package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Logger(logger))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/v1/projects/{projectID}", func(w http.ResponseWriter, r *http.Request) {
		LoggerFrom(r.Context(), zap.NewNop()).Error("backend unavailable")
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Delete("/api/v1/projects/{projectID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}

func TestLogger_RequestScopedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := newLoggedRouter(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/p-1", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	inner := entries[0]
	assert.Equal(t, "backend unavailable", inner.Message)
	assert.Equal(t, "req-42", inner.ContextMap()["request_id"])
	assert.Equal(t, http.MethodGet, inner.ContextMap()["method"])

	done := entries[1]
	assert.Equal(t, "HTTP Request", done.Message)
	assert.Equal(t, zapcore.ErrorLevel, done.Level)
	fields := done.ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "/api/v1/projects/{projectID}", fields["route"])
	assert.Equal(t, "p-1", fields["project_id"])
	assert.EqualValues(t, http.StatusBadGateway, fields["status"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		level  zapcore.Level
	}{
		{name: "health check", method: http.MethodGet, path: "/health", level: zapcore.DebugLevel},
		{name: "client error", method: http.MethodDelete, path: "/api/v1/projects/p-1", level: zapcore.WarnLevel},
		{name: "unrouted", method: http.MethodGet, path: "/nowhere", level: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := newLoggedRouter(zap.New(core))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			entries := logs.FilterMessage("HTTP Request").AllUntimed()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
		})
	}
}

func TestLogger_HealthSuppressedAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := newLoggedRouter(zap.New(core))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Zero(t, logs.Len())
}

func TestLoggerFrom_Fallback(t *testing.T) {
	fallback := zap.NewNop()
	assert.Same(t, fallback, LoggerFrom(context.Background(), fallback))
}
