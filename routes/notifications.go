package routes

import (
	"github.com/gin-gonic/gin"

	"drip-rating-server/middleware"
	ws "drip-rating-server/websocket"
)

// RegisterNotificationRoutes exposes the WebSocket channel used for save
// status events ("rating_saved", "rating_queued", "rating_replayed").
func RegisterNotificationRoutes(router *gin.Engine, hub *ws.Hub) {
	router.GET("/api/v1/ws/notifications", middleware.WebSocketAuthMiddleware(), func(c *gin.Context) {
		userID := c.GetUint("user_id")
		ws.ServeWebSocket(hub, c.Writer, c.Request, userID)
	})
}
