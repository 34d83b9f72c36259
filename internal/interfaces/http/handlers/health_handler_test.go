package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("1.2.3")

	w := httptest.NewRecorder()
	healthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"1.2.3"`)
	assert.Contains(t, w.Body.String(), `"alive"`)
}

func TestReadinessAllUp(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("dev",
		CheckerFunc{Component: "postgres", Fn: func(ctx context.Context) error { return nil }},
		CheckerFunc{Component: "redis", Fn: func(ctx context.Context) error { return nil }},
	)

	w := httptest.NewRecorder()
	healthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status     string                    `json:"status"`
		Components map[string]ComponentCheck `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "up", resp.Components["postgres"].Status)
	assert.Equal(t, "up", resp.Components["redis"].Status)
}

func TestReadinessOneDown(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("dev",
		CheckerFunc{Component: "postgres", Fn: func(ctx context.Context) error { return nil }},
		CheckerFunc{Component: "neo4j", Fn: func(ctx context.Context) error { return errors.New("connection refused") }},
	)

	w := httptest.NewRecorder()
	healthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Status     string                    `json:"status"`
		Components map[string]ComponentCheck `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "down", resp.Components["neo4j"].Status)
	assert.Equal(t, "connection refused", resp.Components["neo4j"].Error)
	assert.Equal(t, "up", resp.Components["postgres"].Status)
}

func TestReadinessNoCheckers(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("dev")

	w := httptest.NewRecorder()
	healthRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
