package usecase

import (
	"context"
	"time"

	"wastecycle/internal/domain/entity"
	"wastecycle/internal/domain/repository"
	"wastecycle/pkg/errors"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
}

func NewListingUseCase(listingRepo repository.ListingRepository, userRepo repository.UserRepository) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		userRepo:    userRepo,
	}
}

type CreateListingInput struct {
	Title       string
	Description string
	Category    string
	Quantity    float64
	Unit        string
	Price       float64
	Location    string
	Images      []string
}

type UpdateListingInput struct {
	Title       string
	Description string
	Category    string
	Quantity    float64
	Unit        string
	Price       float64
	Location    string
	Images      []string
}

type ListingFilter struct {
	Category    string
	Location    string
	IncludeSold bool
}

func (uc *ListingUseCase) CreateListing(ctx context.Context, ownerID string, input CreateListingInput) (*entity.Listing, error) {
	listing := &entity.Listing{
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
		Price:       input.Price,
		Location:    input.Location,
		Images:      input.Images,
		Sold:        false,
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}

func (uc *ListingUseCase) ListListings(ctx context.Context, filter ListingFilter, limit, offset int) ([]*entity.Listing, int64, error) {
	repoFilter := map[string]interface{}{}
	if filter.Category != "" {
		repoFilter["category"] = filter.Category
	}
	if filter.Location != "" {
		repoFilter["location"] = filter.Location
	}
	if !filter.IncludeSold {
		repoFilter["sold"] = false
	}

	return uc.listingRepo.List(ctx, repoFilter, limit, offset)
}

func (uc *ListingUseCase) ListMyListings(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Listing, int64, error) {
	return uc.listingRepo.ListByOwnerID(ctx, ownerID, limit, offset)
}

func (uc *ListingUseCase) UpdateListing(ctx context.Context, userID, id string, input UpdateListingInput) (*entity.Listing, error) {
	listing, err := uc.ownedListing(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		listing.Title = input.Title
	}
	if input.Description != "" {
		listing.Description = input.Description
	}
	if input.Category != "" {
		listing.Category = input.Category
	}
	if input.Quantity > 0 {
		listing.Quantity = input.Quantity
	}
	if input.Unit != "" {
		listing.Unit = input.Unit
	}
	if input.Price > 0 {
		listing.Price = input.Price
	}
	if input.Location != "" {
		listing.Location = input.Location
	}
	if input.Images != nil {
		listing.Images = input.Images
	}
	listing.UpdatedAt = time.Now()

	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

func (uc *ListingUseCase) MarkSold(ctx context.Context, userID, id string) (*entity.Listing, error) {
	listing, err := uc.ownedListing(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	listing.Sold = true
	listing.UpdatedAt = time.Now()

	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

func (uc *ListingUseCase) DeleteListing(ctx context.Context, userID, id string) error {
	if _, err := uc.ownedListing(ctx, userID, id); err != nil {
		return err
	}
	return uc.listingRepo.Delete(ctx, id)
}

func (uc *ListingUseCase) ownedListing(ctx context.Context, userID, id string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != userID {
		return nil, errors.Forbidden("You can only manage your own listings", nil)
	}
	return listing, nil
}
