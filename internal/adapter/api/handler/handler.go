package handler

import (
	"wastecycle/internal/usecase"
)

var (
	authHandler    *AuthHandler
	userHandler    *UserHandler
	listingHandler *ListingHandler
	healthHandler  *HealthHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	listingUseCase *usecase.ListingUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase)
	listingHandler = NewListingHandler(listingUseCase)
	healthHandler = NewHealthHandler()
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
