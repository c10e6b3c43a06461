package identity

import (
	"context"
	"testing"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserService_UpdateBankAccount_Masks(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleManufacturer)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	svc := NewUserService(userRepo, nil, zap.NewNop())
	info, err := svc.UpdateBankAccount(ctx, user.ID, BankAccountInput{
		HolderName:    "Asha Traders",
		AccountNumber: "123456789012",
		IFSC:          "hdfc0001234",
	})

	require.NoError(t, err)
	require.NotNil(t, info.BankAccount)
	assert.Equal(t, "XXXXXXXX9012", info.BankAccount.AccountNumber)
	assert.Equal(t, "HDFC0001234", info.BankAccount.IFSC)
	assert.Equal(t, "123456789012", user.BankAccount.AccountNumber)
}

func TestUserService_UpdateBankAccount_RetailerRejected(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleRetailer)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	svc := NewUserService(userRepo, nil, zap.NewNop())
	_, err := svc.UpdateBankAccount(ctx, user.ID, BankAccountInput{
		HolderName:    "Asha",
		AccountNumber: "123456789012",
		IFSC:          "HDFC0001234",
	})

	assert.Equal(t, "NOT_A_MANUFACTURER", domainCode(t, err))
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_VerifyManufacturer(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleManufacturer)
	require.False(t, user.IsVerified)

	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	events := new(MockEventPublisher)
	events.On("Publish", ctx, mock.Anything).Return(nil)

	svc := NewUserService(userRepo, events, zap.NewNop())
	info, err := svc.VerifyManufacturer(ctx, user.ID)

	require.NoError(t, err)
	assert.True(t, info.IsVerified)
	events.AssertExpectations(t)

	_, err = svc.VerifyManufacturer(ctx, user.ID)
	assert.Equal(t, "ALREADY_VERIFIED", domainCode(t, err))
}

func TestUserService_ListUsers_RoleFilter(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, identity.RoleManufacturer)
	role := identity.RoleManufacturer
	userRepo := new(MockUserRepository)
	userRepo.On("FindAll", ctx, identity.UserFilter{Role: &role, Page: 1, PageSize: 20}).
		Return([]*identity.User{user}, int64(1), nil)

	svc := NewUserService(userRepo, nil, zap.NewNop())
	page, err := svc.ListUsers(ctx, ListUsersInput{Role: "manufacturer"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, user.ID, page.Items[0].ID)

	_, err = svc.ListUsers(ctx, ListUsersInput{Role: "wizard"})
	assert.Equal(t, "INVALID_ROLE", domainCode(t, err))
}

func TestUserService_SetActive_AdminProtected(t *testing.T) {
	ctx := context.Background()
	admin := createTestUser(t, identity.RoleAdmin)
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", ctx, admin.ID).Return(admin, nil)

	svc := NewUserService(userRepo, nil, zap.NewNop())
	_, err := svc.SetActive(ctx, admin.ID, false)

	assert.Equal(t, "CANNOT_DISABLE_ADMIN", domainCode(t, err))
}

func TestUserService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	userRepo.On("Create", ctx, mock.MatchedBy(func(u *identity.User) bool {
		return u.Role == identity.RoleAdmin && len(u.GetDomainEvents()) == 0
	})).Return(nil)

	svc := NewUserService(userRepo, nil, zap.NewNop())
	info, err := svc.CreateAdmin(ctx, "Ops", "ops@d2bcart.in", "9000000001", "Password123")

	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, info.Role)
	userRepo.AssertExpectations(t)
}
