package api

import (
	"errors"
	"net/http"

	reqdto "smart-parking-engine/internal/handler/dto/request"
	"smart-parking-engine/internal/handler/httperr"
	"smart-parking-engine/internal/reconciler"
	"smart-parking-engine/internal/registry"

	"github.com/gin-gonic/gin"
)

// PresenceHandler is the HTTP ingest for sensor relays that post readings
// directly instead of going through the queue. Both paths feed the same
// reconciler.
type PresenceHandler struct {
	reconciler *reconciler.Reconciler
}

func NewPresenceHandler(rec *reconciler.Reconciler) *PresenceHandler {
	return &PresenceHandler{
		reconciler: rec,
	}
}

// @Summary Report presence
// @Description Apply one sensor presence reading
// @Tags presence
// @Accept json
// @Produce json
// @Param X-Sensor-Key header string false "Shared sensor secret"
// @Param request body reqdto.PresenceRequest true "Presence reading"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /presence [post]
func (h *PresenceHandler) ReportPresence(c *gin.Context) {
	var req reqdto.PresenceRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	ev := reconciler.Event{
		SlotNumber: req.SlotNumber,
		Detected:   *req.Detected,
	}
	if req.ObservedAt != nil {
		ev.ObservedAt = *req.ObservedAt
	}

	if err := h.reconciler.Handle(c.Request.Context(), ev); err != nil {
		switch {
		case errors.Is(err, registry.ErrSlotNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Unknown slot",
			})
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
	})
}
