package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wastecycle/internal/usecase"
	"wastecycle/pkg/response"
	"wastecycle/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

type listingRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required,oneof=manure compost slurry bedding"`
	Quantity    float64  `json:"quantity" validate:"required,gt=0"`
	Unit        string   `json:"unit" validate:"required,oneof=kg ton m3"`
	Price       float64  `json:"price" validate:"gte=0"`
	Location    string   `json:"location" validate:"required"`
	Images      []string `json:"images" validate:"dive,url"`
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ownerID := c.Get("uid").(string)

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), ownerID, usecase.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Price:       req.Price,
		Location:    req.Location,
		Images:      req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) ListListings(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	filter := usecase.ListingFilter{
		Category:    c.QueryParam("category"),
		Location:    c.QueryParam("location"),
		IncludeSold: c.QueryParam("includeSold") == "true",
	}

	listings, total, err := h.listingUseCase.ListListings(c.Request().Context(), filter, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, pagination.Page, pagination.PageSize)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listingUseCase.GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) ListMyListings(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	ownerID := c.Get("uid").(string)

	listings, total, err := h.listingUseCase.ListMyListings(c.Request().Context(), ownerID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, pagination.Page, pagination.PageSize)
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	listing, err := h.listingUseCase.UpdateListing(c.Request().Context(), userID, c.Param("id"), usecase.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Price:       req.Price,
		Location:    req.Location,
		Images:      req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) MarkSold(c echo.Context) error {
	userID := c.Get("uid").(string)

	listing, err := h.listingUseCase.MarkSold(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) DeleteListing(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.listingUseCase.DeleteListing(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
