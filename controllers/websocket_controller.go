package controllers

import (
	"disasterguardian/middleware"
	"disasterguardian/utils"
	"disasterguardian/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WebSocketController struct {
	hub      *websocket.Hub
	auth     *middleware.AuthMiddleware
	upgrader *gorilla.Upgrader
}

func NewWebSocketController(hub *websocket.Hub, auth *middleware.AuthMiddleware, allowedOrigins []string) *WebSocketController {
	return &WebSocketController{
		hub:      hub,
		auth:     auth,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// HandleWebSocket handles WebSocket connections
// @Summary WebSocket endpoint
// @Description Real-time incident and dispatch events
// @Tags WebSocket
// @Param token query string true "Access token"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} models.APIResponse
// @Router /ws [get]
func (wsc *WebSocketController) HandleWebSocket(c *gin.Context) {
	// browsers cannot set headers on the handshake
	actor, err := wsc.auth.Authenticate(c.Request.Context(), c.Query("token"))
	if err != nil {
		logrus.WithError(err).WithField("client_ip", c.ClientIP()).Debug("WebSocket authentication failed")
		utils.UnauthorizedResponse(c, err.Error())
		return
	}

	conn, err := wsc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logrus.WithError(err).Warn("Failed to upgrade WebSocket connection")
		return
	}

	websocket.NewClient(wsc.hub, conn, actor).Serve()
}

// GetStats reports connection counts per room
func (wsc *WebSocketController) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, "WebSocket statistics retrieved successfully", wsc.hub.GetStats())
}
