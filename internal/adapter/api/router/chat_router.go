package router

import (
	"wastecycle/internal/adapter/api/handler"
	"wastecycle/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	chat := e.Group("/chat")
	chat.Use(authMiddleware.Authenticate)

	chat.GET("", chatHandler.ListRooms)
	chat.POST("", chatHandler.FindOrCreateRoom)
	chat.GET("/:id", chatHandler.GetRoom)
	chat.POST("/:id/messages", chatHandler.PostMessage)
	chat.GET("/:id/messages", chatHandler.ListMessages)
	chat.DELETE("/:id", chatHandler.DeleteRoom, adminMiddleware.AdminOnly)
}
