package repository

import (
	"context"

	"wastecycle/internal/domain/entity"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Listing, int64, error)
	ListByOwnerID(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Listing, int64, error)
	Update(ctx context.Context, listing *entity.Listing) error
	Delete(ctx context.Context, id string) error
}
