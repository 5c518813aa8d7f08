//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"smart-parking-engine/internal/domain/reservation"
	"smart-parking-engine/internal/domain/slot"
	"smart-parking-engine/internal/handler/api"
	"smart-parking-engine/internal/handler/middleware"
	"smart-parking-engine/internal/hub"
	"smart-parking-engine/internal/pkg/clock"
	"smart-parking-engine/internal/reconciler"
	"smart-parking-engine/internal/registry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopGateway struct {
	mu    sync.Mutex
	count int
}

func (g *noopGateway) Trigger(context.Context, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count++
}

func newPresenceRouter(t *testing.T, sensorKey string) (*gin.Engine, *registry.Registry, *noopGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := hub.New(8, logger)
	reg := registry.New([]string{"1", "2"}, logger, h)
	gw := &noopGateway{}
	rec := reconciler.New(reg, gw, h, clock.NewMockClock(baseTime), 10*time.Minute, logger)
	handler := api.NewPresenceHandler(rec)

	router := gin.New()
	guarded := router.Group("/api/presence")
	guarded.Use(middleware.RequireSensorKey(sensorKey))
	guarded.POST("", handler.ReportPresence)
	return router, reg, gw
}

func occupySlot(t *testing.T, reg *registry.Registry, number string) {
	t.Helper()
	res, err := reservation.NewReservation(reservation.Identity{
		UserID:        uuid.New(),
		Username:      "alice",
		VehicleNumber: "KA-01-AB-1234",
		Mobile:        "9876543210",
	}, reservation.ReconstructWindow(baseTime, baseTime.Add(time.Hour)), baseTime)
	require.NoError(t, err)
	_, err = reg.CompareAndTransition(number, slot.StatusAvailable, 0, slot.StatusOccupied, res)
	require.NoError(t, err)
}

func postPresence(router *gin.Engine, key string, body map[string]any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/presence", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Sensor-Key", key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReportPresence(t *testing.T) {
	t.Run("detection parks an occupied slot", func(t *testing.T) {
		router, reg, gw := newPresenceRouter(t, "")
		occupySlot(t, reg, "1")

		rec := postPresence(router, "", map[string]any{
			"slotNumber": "1",
			"detected":   true,
			"observedAt": baseTime.Add(10 * time.Minute).Format(time.RFC3339),
		})
		assert.Equal(t, http.StatusAccepted, rec.Code)

		snap, err := reg.Get("1")
		require.NoError(t, err)
		assert.Equal(t, slot.StatusParked, snap.Status)
		assert.Equal(t, 1, gw.count)
	})

	t.Run("missing detected flag is rejected", func(t *testing.T) {
		router, _, _ := newPresenceRouter(t, "")

		rec := postPresence(router, "", map[string]any{"slotNumber": "1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown slot", func(t *testing.T) {
		router, _, _ := newPresenceRouter(t, "")

		rec := postPresence(router, "", map[string]any{"slotNumber": "42", "detected": true})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("sensor key is enforced when configured", func(t *testing.T) {
		router, reg, _ := newPresenceRouter(t, "shared-secret")
		occupySlot(t, reg, "1")

		body := map[string]any{"slotNumber": "1", "detected": true, "observedAt": baseTime.Format(time.RFC3339)}

		rec := postPresence(router, "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = postPresence(router, "wrong", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = postPresence(router, "shared-secret", body)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}
