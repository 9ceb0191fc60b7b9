package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat/internal/adapter/repository"
	"pairchat/internal/domain/entity"
	domainrepo "pairchat/internal/domain/repository"
	"pairchat/pkg/errors"
)

// unreachableUserRepo simulates a directory whose backend is down.
type unreachableUserRepo struct {
	domainrepo.UserRepository
}

func (r unreachableUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, errors.Upstream("Document store unavailable", nil)
}

type mockIdentityProvider struct {
	mock.Mock
}

func (m *mockIdentityProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

func (m *mockIdentityProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockIdentityProvider) SignInWithEmailPassword(email, password string) (string, error) {
	args := m.Called(email, password)
	return args.String(0), args.Error(1)
}

func (m *mockIdentityProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	args := m.Called(ctx, uid, displayName)
	return args.Error(0)
}

func TestRegister(t *testing.T) {
	userRepo := repository.NewMemoryUserRepository()
	identity := new(mockIdentityProvider)
	uc := NewAuthUseCase(userRepo, identity)
	ctx := context.Background()

	identity.On("CreateUser", ctx, "alice@example.com", "secret123", "Alice").Return("uid-1", nil)
	identity.On("SignInWithEmailPassword", "alice@example.com", "secret123").Return("token-1", nil)

	result, err := uc.Register(ctx, RegisterInput{
		Email:       "alice@example.com",
		Password:    "secret123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", result.User.ID)
	assert.Equal(t, "token-1", result.Token)
	assert.Equal(t, entity.PresenceOffline, result.User.Status)

	stored, err := userRepo.GetByID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.DisplayName)

	identity.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userRepo := repository.NewMemoryUserRepository()
	identity := new(mockIdentityProvider)
	uc := NewAuthUseCase(userRepo, identity)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &entity.User{ID: "uid-1", Email: "alice@example.com"}))

	_, err := uc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "x", DisplayName: "Alice"})
	assert.True(t, errors.Is(err, "CONFLICT"))
	identity.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterUpstreamFailure(t *testing.T) {
	userRepo := repository.NewMemoryUserRepository()
	identity := new(mockIdentityProvider)
	uc := NewAuthUseCase(userRepo, identity)
	ctx := context.Background()

	identity.On("CreateUser", ctx, "bob@example.com", "secret123", "Bob").
		Return("", errors.Upstream("Identity provider rejected the request", nil))

	_, err := uc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "secret123", DisplayName: "Bob"})
	assert.True(t, errors.Is(err, "UPSTREAM_FAILURE"))

	_, err = userRepo.GetByEmail(ctx, "bob@example.com")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestRegisterPropagatesDirectoryFailure(t *testing.T) {
	identity := new(mockIdentityProvider)
	uc := NewAuthUseCase(unreachableUserRepo{}, identity)

	_, err := uc.Register(context.Background(), RegisterInput{
		Email:       "alice@example.com",
		Password:    "secret123",
		DisplayName: "Alice",
	})
	assert.True(t, errors.Is(err, "UPSTREAM_FAILURE"))

	// A directory outage must never fall through to account creation.
	identity.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginMarksUserOnline(t *testing.T) {
	userRepo := repository.NewMemoryUserRepository()
	identity := new(mockIdentityProvider)
	uc := NewAuthUseCase(userRepo, identity)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &entity.User{
		ID:     "uid-1",
		Email:  "alice@example.com",
		Status: entity.PresenceOffline,
	}))

	identity.On("SignInWithEmailPassword", "alice@example.com", "secret123").Return("token-1", nil)
	identity.On("VerifyToken", ctx, "token-1").Return("uid-1", nil)

	result, err := uc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "token-1", result.Token)
	assert.Equal(t, entity.PresenceOnline, result.User.Status)

	stored, err := userRepo.GetByID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceOnline, stored.Status)
}

func TestLoginBadCredentials(t *testing.T) {
	userRepo := repository.NewMemoryUserRepository()
	identity := new(mockIdentityProvider)
	uc := NewAuthUseCase(userRepo, identity)
	ctx := context.Background()

	identity.On("SignInWithEmailPassword", "alice@example.com", "wrong").
		Return("", errors.Unauthorized("Invalid email or password", nil))

	_, err := uc.Login(ctx, "alice@example.com", "wrong")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestLogoutMarksUserOffline(t *testing.T) {
	userRepo := repository.NewMemoryUserRepository()
	identity := new(mockIdentityProvider)
	uc := NewAuthUseCase(userRepo, identity)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, &entity.User{
		ID:     "uid-1",
		Email:  "alice@example.com",
		Status: entity.PresenceOnline,
	}))

	require.NoError(t, uc.Logout(ctx, "uid-1"))

	stored, err := userRepo.GetByID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PresenceOffline, stored.Status)

	assert.True(t, errors.Is(uc.Logout(ctx, "missing"), "NOT_FOUND"))
}
