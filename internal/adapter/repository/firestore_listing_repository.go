package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"wastecycle/internal/domain/entity"
	"wastecycle/internal/domain/repository"
	"wastecycle/pkg/errors"
	"wastecycle/pkg/logger"
)

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}

	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	_, err := r.client.Collection("listings").Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to create listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection("listings").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", nil)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}

	return &listing, nil
}

func (r *firestoreListingRepository) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]*entity.Listing, int64, error) {
	query := r.client.Collection("listings").Query
	for field, value := range filter {
		query = query.Where(field, "==", value)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing listings: %v", err)
		return nil, 0, errors.Internal("Failed to fetch listings", err)
	}

	total := int64(len(docs))

	// Pagination in memory, same trade-off as the chat room query: one read,
	// no composite index per filter combination.
	start := offset
	if start > len(docs) {
		start = len(docs)
	}
	end := len(docs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var listings []*entity.Listing
	for _, doc := range docs[start:end] {
		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			logger.Warn("Skipping malformed listing %s: %v", doc.Ref.ID, err)
			continue
		}
		listings = append(listings, &listing)
	}

	return listings, total, nil
}

func (r *firestoreListingRepository) ListByOwnerID(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Listing, int64, error) {
	return r.List(ctx, map[string]interface{}{"ownerId": ownerID}, limit, offset)
}

func (r *firestoreListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	listing.UpdatedAt = time.Now()

	_, err := r.client.Collection("listings").Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to update listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("listings").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete listing", err)
	}

	return nil
}
