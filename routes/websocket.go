package routes

import (
	"disasterguardian/controllers"
	"disasterguardian/middleware"
	"disasterguardian/models"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes configures the real-time channel. The token travels
// in the query string, so /ws sits outside the bearer-token groups.
func SetupWebSocketRoutes(router *gin.Engine, wsController *controllers.WebSocketController) {
	router.GET("/ws", wsController.HandleWebSocket)
}

// SetupAdminRoutes configures audit and monitoring endpoints
func SetupAdminRoutes(router *gin.RouterGroup, smsLogController *controllers.SmsLogController, wsController *controllers.WebSocketController) {
	router.GET("/sms-logs", middleware.RequireCapability(models.CapViewAuditLogs), smsLogController.ListLogs)

	admin := router.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/websocket/stats", wsController.GetStats)
	}
}
