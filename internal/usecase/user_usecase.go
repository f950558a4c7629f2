package usecase

import (
	"context"
	"strings"
	"time"

	"wastecycle/internal/domain/entity"
	"wastecycle/internal/domain/repository"
	"wastecycle/pkg/errors"
	"wastecycle/pkg/logger"
)

type UserUseCase struct {
	userRepo   repository.UserRepository
	authClient AuthClient
}

func NewUserUseCase(userRepo repository.UserRepository, authClient AuthClient) *UserUseCase {
	return &UserUseCase{
		userRepo:   userRepo,
		authClient: authClient,
	}
}

type UpdateProfileInput struct {
	Name     string
	FarmName string
}

// GetProfile returns the user record, provisioning one with defaults on first
// authenticated access. Users who signed in through the identity provider but
// never registered through this backend get a record seeded from the
// provider's profile.
func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	info, err := uc.authClient.GetUserInfo(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	name := info.DisplayName
	if name == "" {
		if at := strings.Index(info.Email, "@"); at > 0 {
			name = info.Email[:at]
		}
	}

	now := time.Now()
	user = &entity.User{
		ID:        userID,
		Email:     info.Email,
		Name:      name,
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		logger.Error("GetProfile: failed to auto-provision user %s: %v", userID, err)
		return nil, errors.Internal("Failed to create user record", err)
	}

	logger.Info("GetProfile: auto-provisioned user %s", userID)
	return user, nil
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.FarmName != "" {
		user.FarmName = input.FarmName
	}
	user.UpdatedAt = time.Now()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Internal("Failed to update user profile", err)
	}

	return user, nil
}
