package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Live)
	r.HEAD("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
	r.GET("/api/ping", Ping)
	return r
}

func TestHealthHandler_Live(t *testing.T) {
	t.Parallel()

	failing := map[string]Check{"db": func(context.Context) error { return errors.New("down") }}
	router := setupRouter(NewHealthHandler(failing, 0))

	tests := []struct {
		method   string
		wantBody string
	}{
		{http.MethodGet, `{"status":"ok"}`},
		{http.MethodHead, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, "/healthz", nil))

			assert.Equal(t, http.StatusOK, w.Code, "liveness ignores dependency checks")
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			if tt.wantBody == "" {
				assert.Zero(t, w.Body.Len())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success: no checks",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok","checks":{}}`,
		},
		{
			name:       "success: all dependencies reachable",
			checks:     map[string]Check{"db": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok","checks":{"db":"ok","redis":"ok"}}`,
		},
		{
			name: "error: one dependency down",
			checks: map[string]Check{
				"db":    ok,
				"redis": func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable","checks":{"db":"ok","redis":"connection refused"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			setupRouter(NewHealthHandler(tt.checks, 0)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	setupRouter(NewHealthHandler(nil, 0)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
