package api

import (
	"chat-relay/ws"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP surface: auth endpoints, message history,
// search and the websocket upgrade.
func NewRouter(
	log *slog.Logger,
	authHandler *AuthHandler,
	messageHandler *MessageHandler,
	wsHandler *ws.Handler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	router.GET("/msgs", messageHandler.History)
	router.GET("/msgs/search", messageHandler.Search)
	router.GET("/ws", wsHandler.Handle)

	log.Debug("router configured")
	return router
}

// corsMiddleware allows any origin, matching the open policy of the
// websocket upgrader.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
