package router

import (
	"wastecycle/internal/adapter/api/handler"
	"wastecycle/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupFileRouter(e *echo.Echo, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	files := e.Group("/v1/files")
	files.Use(authMiddleware.Authenticate)

	files.POST("/listing-image", fileHandler.UploadListingImage)
}
