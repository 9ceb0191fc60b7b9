package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/pkg/errors"
)

type UserUseCase struct {
	userRepo repository.UserRepository
	identity IdentityProvider
	uploader FileUploader
}

func NewUserUseCase(userRepo repository.UserRepository, identity IdentityProvider, uploader FileUploader) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		identity: identity,
		uploader: uploader,
	}
}

func (uc *UserUseCase) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	DisplayName string
	PhotoURL    string
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != "" {
		user.DisplayName = input.DisplayName
		if err := uc.identity.UpdateDisplayName(ctx, userID, input.DisplayName); err != nil {
			return nil, err
		}
	}
	if input.PhotoURL != "" {
		user.PhotoURL = input.PhotoURL
	}
	user.UpdatedAt = time.Now()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) SearchUsers(ctx context.Context, name string, limit, offset int) ([]*entity.User, int64, error) {
	return uc.userRepo.SearchByDisplayName(ctx, name, limit, offset)
}

func (uc *UserUseCase) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	return uc.userRepo.List(ctx, limit, offset)
}

// AddUser inserts a directory entry without an authentication account; the
// mobile client's contact screen uses it to seed conversation partners.
func (uc *UserUseCase) AddUser(ctx context.Context, email, displayName string) (*entity.User, error) {
	if email == "" || displayName == "" {
		return nil, errors.InvalidArgument("email and display name are required", nil)
	}

	now := time.Now()
	user := &entity.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		Status:      entity.PresenceOffline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) UploadAvatar(ctx context.Context, userID string, file io.Reader, filename, contentType string) (string, error) {
	if uc.uploader == nil {
		return "", errors.Upstream("Upload relay is not configured", nil)
	}

	url, err := uc.uploader.UploadFile(ctx, file, filename, contentType)
	if err != nil {
		return "", err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	user.PhotoURL = url
	user.UpdatedAt = time.Now()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return "", err
	}

	return url, nil
}
