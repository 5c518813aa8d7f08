package api

import (
	"errors"
	"net/http"

	reqdto "smart-parking-engine/internal/handler/dto/request"
	resdto "smart-parking-engine/internal/handler/dto/response"
	"smart-parking-engine/internal/handler/httperr"
	"smart-parking-engine/internal/handler/middleware"
	"smart-parking-engine/internal/pkg/errs"
	"smart-parking-engine/internal/usecase/commands"
	"smart-parking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	bookingCommands commands.BookingCommands
	slotQueries     queries.SlotQueries
}

func NewSlotHandler(bookingCommands commands.BookingCommands, slotQueries queries.SlotQueries) *SlotHandler {
	return &SlotHandler{
		bookingCommands: bookingCommands,
		slotQueries:     slotQueries,
	}
}

// @Summary List slots
// @Description Get the current state of every slot in the lot
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.SlotListResponse
// @Failure 401 {object} map[string]string
// @Router /slots [get]
func (h *SlotHandler) ListSlots(c *gin.Context) {
	snaps := h.slotQueries.ListSlots(c.Request.Context())
	summary := h.slotQueries.Summary(c.Request.Context())

	c.JSON(http.StatusOK, resdto.SlotListResponse{
		Slots:   resdto.FromSnapshots(snaps),
		Summary: resdto.FromLotSummary(summary),
	})
}

// @Summary Get slot
// @Description Get the current state of one slot
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param number path string true "Slot number"
// @Success 200 {object} resdto.SlotResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /slots/{number} [get]
func (h *SlotHandler) GetSlot(c *gin.Context) {
	snap, err := h.slotQueries.GetSlot(c.Request.Context(), c.Param("number"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Slot not found",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromSnapshot(snap))
}

// @Summary Book slot
// @Description Reserve a slot for a time window
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param number path string true "Slot number"
// @Param request body reqdto.BookSlotRequest true "Booking window"
// @Success 201 {object} resdto.SlotResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /slots/{number}/book [post]
func (h *SlotHandler) BookSlot(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError,
			errs.New("identity missing from authenticated context"), "Internal server error", nil)
		return
	}

	var req reqdto.BookSlotRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	snap, err := h.bookingCommands.Book(
		c.Request.Context(), c.Param("number"), identity, req.BookingStart, req.BookingEnd,
	)
	if err != nil {
		var alreadyBooked *commands.AlreadyBookedError
		switch {
		case errors.Is(err, commands.ErrSlotNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Slot not found",
			})
		case errors.Is(err, commands.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid booking window",
			})
		case errors.As(err, &alreadyBooked):
			c.JSON(http.StatusConflict, gin.H{
				"error":    "An active booking already exists",
				"heldSlot": alreadyBooked.HeldSlot,
			})
		case errors.Is(err, commands.ErrSlotTaken):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Slot was just taken, refresh and pick another",
			})
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromSnapshot(snap))
}

// @Summary Release slot
// @Description Release the caller's reservation; admins may release any slot
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param number path string true "Slot number"
// @Success 200 {object} resdto.SlotResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /slots/{number}/release [post]
func (h *SlotHandler) ReleaseSlot(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError,
			errs.New("identity missing from authenticated context"), "Internal server error", nil)
		return
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError,
			errs.New("role missing from authenticated context"), "Internal server error", nil)
		return
	}

	snap, err := h.bookingCommands.Release(c.Request.Context(), c.Param("number"), identity, role)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrSlotNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Slot not found",
			})
		case errors.Is(err, commands.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the reservation owner can release this slot",
			})
		case errors.Is(err, commands.ErrSlotTaken):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Slot state changed, retry the release",
			})
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromSnapshot(snap))
}
