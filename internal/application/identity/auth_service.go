package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email, phone or password")

// AuthService handles sign-up, login and token rotation
type AuthService struct {
	userRepo    identity.UserRepository
	jwtService  *auth.JWTService
	revocations auth.RevocationList
	events      shared.EventPublisher
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revocations auth.RevocationList,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		revocations: revocations,
		events:      events,
		logger:      logger,
	}
}

// Register creates a retailer or manufacturer account and logs it in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Role != identity.RoleRetailer && input.Role != identity.RoleManufacturer {
		return nil, shared.NewDomainError("INVALID_ROLE", "Sign-up is open to retailers and manufacturers only")
	}

	user, err := identity.NewUser(input.Role, input.Name, input.Email, input.Phone, input.Password, identity.BusinessProfile{
		BusinessName: input.BusinessName,
		GSTIN:        input.GSTIN,
		State:        input.State,
		City:         input.City,
		Pincode:      input.Pincode,
		AddressLine:  input.AddressLine,
	})
	if err != nil {
		return nil, err
	}
	user.Attribution = input.Attribution

	if err := s.ensureUnique(ctx, user.Email, user.Phone); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ACCOUNT_EXISTS", "An account with this email or phone already exists")
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, user.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish registration events", zap.Error(err))
		}
		user.ClearDomainEvents()
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()),
		zap.String("source", user.Attribution.Source()),
	)
	return s.issue(user)
}

// Login authenticates by email or phone
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.findByIdentifier(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.NewDomainError("ACCOUNT_DISABLED", "Account has been deactivated")
	}

	user.RecordLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued, so a stolen refresh token works at most once
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
		}
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		s.logger.Warn("Revoked refresh token presented", zap.String("user_id", claims.UserID))
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Account no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.NewDomainError("ACCOUNT_DISABLED", "Account has been deactivated")
	}

	if err := s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes a refresh token. Unknown or expired tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.GetRemainingTTL())
}

func (s *AuthService) issue(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		UserID:   user.ID,
		Role:     user.Role.String(),
		Name:     user.Name,
		Verified: user.IsVerified,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return &AuthResult{Tokens: pair, User: ToUserInfo(user)}, nil
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.userRepo.FindByEmail(ctx, strings.ToLower(identifier))
	}
	phone, ok := valueobject.NormalizePhone(identifier)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s.userRepo.FindByPhone(ctx, phone)
}

func (s *AuthService) ensureUnique(ctx context.Context, email, phone string) error {
	taken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	}
	taken, err = s.userRepo.ExistsByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewDomainError("PHONE_TAKEN", "An account with this phone already exists")
	}
	return nil
}
