package router

import (
	"wastecycle/internal/adapter/api/handler"

	"github.com/labstack/echo/v4"
)

func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	// Auth happens inside the handler: the token rides in as a query
	// parameter because browsers cannot set headers on websocket dials.
	e.GET("/ws", wsHandler.HandleWebSocket)
}
