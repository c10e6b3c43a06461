package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/auth"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*identity.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context) (map[identity.Role]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[identity.Role]int64), args.Error(1)
}

func (m *MockUserRepository) CountPendingManufacturers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func createTestUser(t *testing.T, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewUser(role, "Asha Traders", "asha@example.com", "9876543210", "Password123", identity.BusinessProfile{
		BusinessName: "Asha Traders",
		State:        "Karnataka",
		City:         "Bengaluru",
		Pincode:      "560001",
	})
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	})
}

func createAuthService(userRepo *MockUserRepository, events shared.EventPublisher) (*AuthService, auth.RevocationList) {
	revocations := auth.NewInMemoryRevocationList()
	return NewAuthService(userRepo, newTestJWT(), revocations, events, zap.NewNop()), revocations
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected domain error, got %v", err)
	return domainErr.Code
}

func TestAuthService_Register_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	events := new(MockEventPublisher)

	userRepo.On("ExistsByEmail", ctx, "new@example.com").Return(false, nil)
	userRepo.On("ExistsByPhone", ctx, "+919812345678").Return(false, nil)
	userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)
	events.On("Publish", ctx, mock.Anything).Return(nil)

	svc, _ := createAuthService(userRepo, events)
	result, err := svc.Register(ctx, RegisterInput{
		Role:         identity.RoleRetailer,
		Name:         "Kirana Mart",
		Email:        "New@Example.com",
		Phone:        "98123 45678",
		Password:     "Password123",
		BusinessName: "Kirana Mart",
		State:        "Maharashtra",
		Pincode:      "400001",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
	assert.Equal(t, "new@example.com", result.User.Email)
	assert.Equal(t, "+919812345678", result.User.Phone)
	assert.True(t, result.User.IsVerified)

	userRepo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestAuthService_Register_RejectsAdminRole(t *testing.T) {
	svc, _ := createAuthService(new(MockUserRepository), nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Role:     identity.RoleAdmin,
		Name:     "Root",
		Email:    "root@example.com",
		Phone:    "9812345678",
		Password: "Password123",
	})

	require.Error(t, err)
	assert.Equal(t, "INVALID_ROLE", domainCode(t, err))
}

func TestAuthService_Register_DuplicatePhone(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	userRepo.On("ExistsByEmail", ctx, "dup@example.com").Return(false, nil)
	userRepo.On("ExistsByPhone", ctx, "+919812345678").Return(true, nil)

	svc, _ := createAuthService(userRepo, nil)
	_, err := svc.Register(ctx, RegisterInput{
		Role:     identity.RoleManufacturer,
		Name:     "Maker",
		Email:    "dup@example.com",
		Phone:    "+91 98123 45678",
		Password: "Password123",
		State:    "Gujarat",
	})

	require.Error(t, err)
	assert.Equal(t, "PHONE_TAKEN", domainCode(t, err))
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login_ByEmailAndPhone(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleRetailer)

	tests := []struct {
		name       string
		identifier string
		method     string
		key        string
	}{
		{"email", " ASHA@example.com ", "FindByEmail", "asha@example.com"},
		{"phone", "098765 43210", "FindByPhone", "+919876543210"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			userRepo.On(tt.method, ctx, tt.key).Return(user, nil)
			userRepo.On("Update", ctx, user).Return(nil)

			svc, _ := createAuthService(userRepo, nil)
			result, err := svc.Login(ctx, LoginInput{Identifier: tt.identifier, Password: "Password123"})

			require.NoError(t, err)
			assert.Equal(t, user.ID, result.User.ID)
			assert.NotNil(t, user.LastLoginAt)
			userRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleRetailer)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)
	userRepo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, shared.ErrNotFound)

	svc, _ := createAuthService(userRepo, nil)

	_, err := svc.Login(ctx, LoginInput{Identifier: "asha@example.com", Password: "wrongpassword1"})
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))

	_, err = svc.Login(ctx, LoginInput{Identifier: "ghost@example.com", Password: "Password123"})
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))

	_, err = svc.Login(ctx, LoginInput{Identifier: "12345", Password: "Password123"})
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleRetailer)
	user.SetActive(false)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)

	svc, _ := createAuthService(userRepo, nil)
	_, err := svc.Login(ctx, LoginInput{Identifier: "asha@example.com", Password: "Password123"})

	assert.Equal(t, "ACCOUNT_DISABLED", domainCode(t, err))
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleRetailer)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	svc, _ := createAuthService(userRepo, nil)
	login, err := svc.Login(ctx, LoginInput{Identifier: "asha@example.com", Password: "Password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	_, err = svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	svc, _ := createAuthService(new(MockUserRepository), nil)

	_, err := svc.Refresh(context.Background(), "not-a-token")

	assert.Equal(t, "TOKEN_INVALID", domainCode(t, err))
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleRetailer)
	pair, err := newTestJWT().GenerateTokenPair(auth.Subject{UserID: user.ID, Role: "retailer"})
	require.NoError(t, err)

	svc, revocations := createAuthService(new(MockUserRepository), nil)
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	claims, err := newTestJWT().ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	revoked, err := revocations.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.NoError(t, svc.Logout(ctx, "garbage"))
}
