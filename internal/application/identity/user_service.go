package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListUsersInput filters the admin user listing
type ListUsersInput struct {
	Keyword    string
	Role       string
	IsVerified *bool
	IsActive   *bool
	Page       int
	PageSize   int
}

// UserService manages profiles and admin account operations
type UserService struct {
	userRepo identity.UserRepository
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, events shared.EventPublisher, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, events: events, logger: logger}
}

// Me returns the caller's profile
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// UpdateProfile changes the name and business profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if err := user.SetBusinessProfile(identity.BusinessProfile{
		BusinessName: input.BusinessName,
		GSTIN:        input.GSTIN,
		State:        input.State,
		City:         input.City,
		Pincode:      input.Pincode,
		AddressLine:  input.AddressLine,
	}); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// UpdateBankAccount stores a manufacturer's payout account
func (s *UserService) UpdateBankAccount(ctx context.Context, userID uuid.UUID, input BankAccountInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.SetBankAccount(identity.BankAccount{
		HolderName:    input.HolderName,
		AccountNumber: input.AccountNumber,
		IFSC:          input.IFSC,
	}); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Bank account updated", zap.String("user_id", user.ID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// ListUsers returns a page of accounts for the admin console
func (s *UserService) ListUsers(ctx context.Context, input ListUsersInput) (*shared.Paginated[UserInfo], error) {
	filter := identity.UserFilter{
		Keyword:    input.Keyword,
		IsVerified: input.IsVerified,
		IsActive:   input.IsActive,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}
	if input.Role != "" {
		role := identity.Role(input.Role)
		if !role.IsValid() {
			return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role filter")
		}
		filter.Role = &role
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]UserInfo, 0, len(users))
	for _, u := range users {
		items = append(items, ToUserInfo(u))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// VerifyManufacturer approves a manufacturer so they can list products
func (s *UserService) VerifyManufacturer(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != identity.RoleManufacturer {
		return nil, shared.NewDomainError("NOT_A_MANUFACTURER", "Only manufacturer accounts need verification")
	}
	if err := user.Verify(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)
	s.logger.Info("Manufacturer verified", zap.String("user_id", user.ID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// SetActive enables or disables an account
func (s *UserService) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == identity.RoleAdmin && !active {
		return nil, shared.NewDomainError("CANNOT_DISABLE_ADMIN", "Admin accounts cannot be disabled")
	}
	user.SetActive(active)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Account status changed",
		zap.String("user_id", user.ID.String()),
		zap.Bool("active", active),
	)
	info := ToUserInfo(user)
	return &info, nil
}

// CreateAdmin provisions an admin account from the operator CLI
func (s *UserService) CreateAdmin(ctx context.Context, name, email, phone, password string) (*UserInfo, error) {
	user, err := identity.NewUser(identity.RoleAdmin, name, email, phone, password, identity.BusinessProfile{})
	if err != nil {
		return nil, err
	}
	user.ClearDomainEvents()
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ACCOUNT_EXISTS", "An account with this email or phone already exists")
		}
		return nil, err
	}
	s.logger.Info("Admin created", zap.String("user_id", user.ID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, user.GetDomainEvents()...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
	user.ClearDomainEvents()
}
