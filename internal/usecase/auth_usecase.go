package usecase

import (
	"context"
	"time"

	"wastecycle/internal/domain/entity"
	"wastecycle/internal/domain/repository"
	"wastecycle/pkg/errors"
	"wastecycle/pkg/logger"
)

type AuthUseCase struct {
	userRepo   repository.UserRepository
	authClient AuthClient
}

func NewAuthUseCase(userRepo repository.UserRepository, authClient AuthClient) *AuthUseCase {
	return &AuthUseCase{
		userRepo:   userRepo,
		authClient: authClient,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	FarmName string
}

type AuthResult struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	existingUser, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existingUser != nil {
		return nil, errors.BadRequest("Email already in use", nil)
	}

	uid, err := uc.authClient.CreateUser(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, errors.Internal("Failed to create user in authentication provider", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:        uid,
		Email:     input.Email,
		Name:      input.Name,
		FarmName:  input.FarmName,
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, errors.Internal("Failed to create user record", err)
	}

	token, err := uc.authClient.SignInWithEmailPassword(input.Email, input.Password)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	token, err := uc.authClient.SignInWithEmailPassword(email, password)
	if err != nil {
		logger.Warn("Login failed for %s: %v", email, err)
		return nil, errors.Unauthorized("Invalid credentials", err)
	}

	uid, err := uc.authClient.VerifyToken(ctx, token)
	if err != nil {
		return nil, errors.Internal("Failed to verify token", err)
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}
