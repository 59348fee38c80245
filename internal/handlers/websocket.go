package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	ws "github.com/thereayou/messagely/internal/websocket"
)

// WebSocketHandler upgrades authenticated requests into live connections.
type WebSocketHandler struct {
	hub      *ws.Hub
	frames   ws.ClientMessageHandler
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewWebSocketHandler(hub *ws.Hub, frames ws.ClientMessageHandler, checkOrigin func(r *http.Request) bool, logger *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		frames: frames,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Debugw("websocket upgrade failed", "username", actor, "err", err)
		return
	}

	client := ws.NewClient(h.hub, conn, actor.String(), h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.frames)
}
