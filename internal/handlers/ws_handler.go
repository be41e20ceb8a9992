package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/marketplace/internal/config"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/middleware"
)

type WSHandler struct {
	hub      *realtime.Hub
	config   *config.Config
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, cfg *config.Config, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		config: cfg,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers cannot send an Authorization header on upgrade; the
			// token query parameter authenticates instead.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Connect upgrades to a WebSocket and joins the caller's room.
func (h *WSHandler) Connect(c *gin.Context) {
	userID, _, err := middleware.ParseToken(h.config.JWTSecret, c.Query("token"))
	if err != nil {
		httperr.Unauthorized(c, "invalid_token", "a valid token query parameter is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Attach(conn, userID)
}
