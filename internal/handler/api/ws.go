package api

import (
	"log/slog"
	"net/http"
	"time"

	"smart-parking-engine/internal/domain/slot"
	resdto "smart-parking-engine/internal/handler/dto/response"
	"smart-parking-engine/internal/hub"
	"smart-parking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WSHandler upgrades dashboard connections and streams hub events. The first
// frame is always the full snapshot; incrementals follow in per-slot version
// order.
type WSHandler struct {
	hub         *hub.Hub
	slotQueries queries.SlotQueries
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

func NewWSHandler(h *hub.Hub, slotQueries queries.SlotQueries, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:         h,
		slotQueries: slotQueries,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origin is already vetted by the auth token; the upgrade
			// itself accepts any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// @Summary Live slot stream
// @Description Upgrade to websocket; receives snapshot, slot_update and gate_open frames
// @Tags slots
// @Security BearerAuth
// @Success 101
// @Failure 401 {object} map[string]string
// @Router /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx := c.Request.Context()
	sub := h.hub.Subscribe(func() []slot.Snapshot {
		return h.slotQueries.ListSlots(ctx)
	})

	go h.writeLoop(conn, sub)
	go h.readLoop(conn, sub)
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, sub *hub.Subscriber) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		h.hub.Unsubscribe(sub)
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				// Hub dropped us (overflow); tell the client to reconnect.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream overflow"))
				return
			}
			if err := conn.WriteJSON(resdto.FromHubEvent(ev)); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop only services control frames; clients send nothing meaningful.
func (h *WSHandler) readLoop(conn *websocket.Conn, sub *hub.Subscriber) {
	defer h.hub.Unsubscribe(sub)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
