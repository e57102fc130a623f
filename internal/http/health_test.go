package http

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

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	pingOK   = pingerFunc(func(context.Context) error { return nil })
	pingDown = pingerFunc(func(context.Context) error { return errors.New("connection refused") })
)

func serveHealth(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when both stores respond", func(t *testing.T) {
		code, response := serveHealth(t, NewHealthController(pingOK, pingOK, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "ok", response.Checks["mirror"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("mirror outage only degrades", func(t *testing.T) {
		code, response := serveHealth(t, NewHealthController(pingOK, pingDown, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", response.Status)
		assert.Contains(t, response.Checks["mirror"], "connection refused")
	})

	t.Run("database outage is unhealthy", func(t *testing.T) {
		code, response := serveHealth(t, NewHealthController(pingDown, pingOK, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("reports unconfigured dependencies", func(t *testing.T) {
		code, response := serveHealth(t, NewHealthController(nil, nil, ""))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.Equal(t, "not configured", response.Checks["mirror"])
	})
}
