//go:build unit

package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"smart-parking-engine/internal/handler/middleware"
	"smart-parking-engine/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddlewareUsesInjectedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	previousDefault := slog.Default()

	cfg := config.LogConfig{
		Level:      "info",
		TimeZone:   "UTC",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}

	router := gin.New()
	router.Use(middleware.LoggingMiddleware(logger, cfg))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "Request started")
	assert.Contains(t, out, "Request completed")
	assert.Contains(t, out, "path=/ping")

	// Wrapping an existing logger must not touch the process default.
	assert.Same(t, previousDefault, slog.Default())
}

func TestLoggingMiddlewareRecordsHandlerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := config.LogConfig{
		Level:      "info",
		TimeZone:   "UTC",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}

	router := gin.New()
	router.Use(middleware.LoggingMiddleware(logger, cfg))
	router.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "status_code=500")
	assert.Contains(t, buf.String(), "level=ERROR")
}
