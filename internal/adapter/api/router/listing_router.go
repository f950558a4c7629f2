package router

import (
	"wastecycle/internal/adapter/api/handler"
	"wastecycle/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupListingRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	listingHandler := handler.GetListingHandler()

	// Browsing is public; whoever is comparing manure prices does not need an
	// account yet.
	listings := e.Group("/v1/listings")
	listings.GET("", listingHandler.ListListings)
	listings.GET("/:id", listingHandler.GetListing)

	protected := e.Group("/v1/listings")
	protected.Use(authMiddleware.Authenticate)
	protected.POST("", listingHandler.CreateListing)
	protected.PUT("/:id", listingHandler.UpdateListing)
	protected.DELETE("/:id", listingHandler.DeleteListing)
	protected.POST("/:id/sold", listingHandler.MarkSold)

	myListings := e.Group("/v1/my-listings")
	myListings.Use(authMiddleware.Authenticate)
	myListings.GET("", listingHandler.ListMyListings)
}
