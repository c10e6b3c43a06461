package handler

import (
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
)

// RegisterRequest is the self sign-up body
type RegisterRequest struct {
	Role         string                  `json:"role" binding:"required,oneof=retailer manufacturer"`
	Name         string                  `json:"name" binding:"required,min=2,max=100"`
	Email        string                  `json:"email" binding:"required,email,max=254"`
	Phone        string                  `json:"phone" binding:"required,phone_in"`
	Password     string                  `json:"password" binding:"required,min=8,max=72"`
	BusinessName string                  `json:"business_name" binding:"max=200"`
	GSTIN        string                  `json:"gstin" binding:"omitempty,gstin"`
	State        string                  `json:"state" binding:"max=100"`
	City         string                  `json:"city" binding:"max=100"`
	Pincode      string                  `json:"pincode" binding:"omitempty,pincode"`
	AddressLine  string                  `json:"address_line" binding:"max=500"`
	Attribution  valueobject.Attribution `json:"attribution"`
}

// LoginRequest accepts an email or phone as identifier
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required,max=254"`
	Password   string `json:"password" binding:"required,max=72"`
}

// RefreshTokenRequest carries a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ProfileRequest updates the caller's business profile
type ProfileRequest struct {
	Name         string `json:"name" binding:"omitempty,min=2,max=100"`
	BusinessName string `json:"business_name" binding:"max=200"`
	GSTIN        string `json:"gstin" binding:"omitempty,gstin"`
	State        string `json:"state" binding:"max=100"`
	City         string `json:"city" binding:"max=100"`
	Pincode      string `json:"pincode" binding:"omitempty,pincode"`
	AddressLine  string `json:"address_line" binding:"max=500"`
}

// BankAccountRequest sets a manufacturer's payout account
type BankAccountRequest struct {
	HolderName    string `json:"holder_name" binding:"required,max=100"`
	AccountNumber string `json:"account_number" binding:"required,numeric,min=9,max=18"`
	IFSC          string `json:"ifsc" binding:"required,len=11"`
}
