package usecase

import (
	"context"
	"time"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/pkg/errors"
	"pairchat/pkg/logger"
)

type AuthUseCase struct {
	userRepo repository.UserRepository
	identity IdentityProvider
}

func NewAuthUseCase(userRepo repository.UserRepository, identity IdentityProvider) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		identity: identity,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type AuthResult struct {
	User  *entity.User
	Token string
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	existing, err := uc.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, errors.Conflict("email already in use")
	}
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	uid, err := uc.identity.CreateUser(ctx, input.Email, input.Password, input.DisplayName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:          uid,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Status:      entity.PresenceOffline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.identity.SignInWithEmailPassword(input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	token, err := uc.identity.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, err
	}

	uid, err := uc.identity.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	user.Status = entity.PresenceOnline
	user.UpdatedAt = time.Now()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		logger.Warn("Failed to mark user %s online: %v", uid, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Status = entity.PresenceOffline
	user.UpdatedAt = time.Now()
	return uc.userRepo.Update(ctx, user)
}

func (uc *AuthUseCase) GetCurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}
