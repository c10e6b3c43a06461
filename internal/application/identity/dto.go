package identity

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// RegisterInput contains the input for self sign-up
type RegisterInput struct {
	Role         identity.Role
	Name         string
	Email        string
	Phone        string
	Password     string
	BusinessName string
	GSTIN        string
	State        string
	City         string
	Pincode      string
	AddressLine  string
	Attribution  valueobject.Attribution
}

// LoginInput contains the input for login. Identifier is an email or phone.
type LoginInput struct {
	Identifier string
	Password   string
}

// ProfileInput contains the editable profile fields
type ProfileInput struct {
	Name         string
	BusinessName string
	GSTIN        string
	State        string
	City         string
	Pincode      string
	AddressLine  string
}

// BankAccountInput contains payout bank details
type BankAccountInput struct {
	HolderName    string
	AccountNumber string
	IFSC          string
}

// UserInfo is the public view of an account
type UserInfo struct {
	ID           uuid.UUID             `json:"id"`
	Email        string                `json:"email"`
	Phone        string                `json:"phone"`
	Name         string                `json:"name"`
	Role         identity.Role         `json:"role"`
	BusinessName string                `json:"business_name,omitempty"`
	GSTIN        string                `json:"gstin,omitempty"`
	State        string                `json:"state,omitempty"`
	City         string                `json:"city,omitempty"`
	Pincode      string                `json:"pincode,omitempty"`
	AddressLine  string                `json:"address_line,omitempty"`
	IsVerified   bool                  `json:"is_verified"`
	IsActive     bool                  `json:"is_active"`
	BankAccount  *identity.BankAccount `json:"bank_account,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	LastLoginAt  *time.Time            `json:"last_login_at,omitempty"`
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   UserInfo        `json:"user"`
}

// ToUserInfo converts a user to its public view; bank details are masked
func ToUserInfo(u *identity.User) UserInfo {
	info := UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Phone:        u.Phone,
		Name:         u.Name,
		Role:         u.Role,
		BusinessName: u.BusinessName,
		GSTIN:        u.GSTIN,
		State:        u.State,
		City:         u.City,
		Pincode:      u.Pincode,
		AddressLine:  u.AddressLine,
		IsVerified:   u.IsVerified,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		LastLoginAt:  u.LastLoginAt,
	}
	if u.BankAccount.IsComplete() {
		masked := u.BankAccount.Masked()
		info.BankAccount = &masked
	}
	return info
}
